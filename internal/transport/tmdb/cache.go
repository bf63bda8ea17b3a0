package tmdb

import (
	"container/list"
	"sync"
)

// posterCache is a bounded LRU map from cleaned title to poster URL.
// Negative results ("" poster) are cached too so a missing movie does
// not trigger a search on every page render.
type posterCache struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[string]*list.Element
}

type posterEntry struct {
	title  string
	poster string
}

func newPosterCache(max int) *posterCache {
	if max <= 0 {
		max = 1
	}
	return &posterCache{
		max:     max,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (c *posterCache) get(title string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[title]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*posterEntry).poster, true
}

func (c *posterCache) put(title, poster string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[title]; ok {
		el.Value.(*posterEntry).poster = poster
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.max {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*posterEntry).title)
		}
	}
	c.entries[title] = c.order.PushFront(&posterEntry{title: title, poster: poster})
}
