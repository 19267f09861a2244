package expression

import "sync"

// Cache 按表达式文本缓存解析结果，生命周期为单次分析
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	expr *Expression
	err  error
}

// NewCache 创建表达式缓存
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Parse 解析表达式，相同文本只解析一次（解析错误同样缓存）
func (c *Cache) Parse(src string) (*Expression, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[src]; ok {
		return entry.expr, entry.err
	}
	expr, err := Parse(src)
	c.entries[src] = cacheEntry{expr: expr, err: err}
	return expr, err
}

// Len 返回缓存中的表达式数量
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
