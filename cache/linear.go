package cache

// linearPolicy walks each set's ways round-robin, ignoring hit history.
type linearPolicy struct {
	next map[uint64]uint64
}

func newLinearPolicy() *linearPolicy {
	return &linearPolicy{next: make(map[uint64]uint64)}
}

func (p *linearPolicy) CheckTag(c *Cache, addr uint64) *uint64 {
	return c.tags.Probe(addr)
}

func (p *linearPolicy) Victimize(c *Cache, addr uint64) uint64 {
	set := c.tags.SetIndex(addr)
	way := p.next[set]
	p.next[set] = (way + 1) % c.ways

	return c.tags.Fill(addr, way)
}
