package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// 通用 JSON 类型
type JSONB map[string]interface{}

// JSONValue 任意 JSON 值（字面量、数组或对象），用于规则比较值和问题的原始值
type JSONValue struct {
	V interface{}
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("类型断言失败: 不是 []byte 或 string")
	}
}

// 实现 Scanner 接口
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, j)
}

// 实现 Valuer 接口
func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// JSONValue 的 Scanner 接口实现
func (j *JSONValue) Scan(value interface{}) error {
	if value == nil {
		j.V = nil
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, &j.V)
}

// JSONValue 的 Valuer 接口实现
func (j JSONValue) Value() (driver.Value, error) {
	if j.V == nil {
		return nil, nil
	}
	return json.Marshal(j.V)
}

func (j JSONValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.V)
}

func (j *JSONValue) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &j.V)
}
