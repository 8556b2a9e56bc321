package cache

import (
	"sync"

	"papertrade/model"
)

// Cache 報價快取（執行緒安全）
type Cache struct {
	mu     sync.RWMutex
	quotes map[string]*model.Quote
}

func New() *Cache {
	return &Cache{quotes: make(map[string]*model.Quote)}
}

// SetQuotes 批次更新報價
func (c *Cache) SetQuotes(quotes []*model.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range quotes {
		c.quotes[q.Symbol] = q
	}
}

// Quote 取得單檔報價，沒有時回傳 nil
func (c *Cache) Quote(symbol string) *model.Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.quotes[symbol]
}

// Quotes 回傳目前所有報價的副本
func (c *Cache) Quotes() []*model.Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*model.Quote, 0, len(c.quotes))
	for _, q := range c.quotes {
		out = append(out, q)
	}
	return out
}

// Price returns the latest traded price for symbol. ok is false when no
// quote is cached or the symbol has not traded yet.
func (c *Cache) Price(symbol string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, found := c.quotes[symbol]
	if !found || q.Price <= 0 {
		return 0, false
	}
	return q.Price, true
}

// Prices returns a symbol→price map of every cached quote with a valid
// traded price.
func (c *Cache) Prices() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(c.quotes))
	for sym, q := range c.quotes {
		if q.Price > 0 {
			out[sym] = q.Price
		}
	}
	return out
}
