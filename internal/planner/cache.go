package planner

// resultCache is a bounded map that evicts the oldest inserted entry
// when full. Insertion order is tracked explicitly; reads do not
// refresh an entry's age. Callers hold the engine lock.
type resultCache struct {
	capacity int
	entries  map[string][]Option
	order    []string
}

func newResultCache(capacity int) *resultCache {
	return &resultCache{
		capacity: capacity,
		entries:  make(map[string][]Option, capacity),
	}
}

func (c *resultCache) get(key string) ([]Option, bool) {
	options, ok := c.entries[key]
	return options, ok
}

func (c *resultCache) put(key string, options []Option) {
	if _, exists := c.entries[key]; !exists {
		for len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = options
}

func (c *resultCache) clear() {
	c.entries = make(map[string][]Option, c.capacity)
	c.order = nil
}

func (c *resultCache) len() int {
	return len(c.entries)
}
