package cache

// A ReplacementPolicy supplies the two operations the access skeleton
// leaves open: locating a resident line and choosing the slot a new line
// fills on a miss. Implementations may keep their own per-set state.
type ReplacementPolicy interface {
	// CheckTag returns a handle to the slot holding addr, or nil.
	CheckTag(c *Cache, addr uint64) *uint64

	// Victimize installs addr into a slot of its set with Dirty clear
	// and returns the previous tag word.
	Victimize(c *Cache, addr uint64) uint64
}

// randomPolicy picks victim ways with the cache's LFSR.
type randomPolicy struct{}

func (randomPolicy) CheckTag(c *Cache, addr uint64) *uint64 {
	return c.tags.Probe(addr)
}

func (randomPolicy) Victimize(c *Cache, addr uint64) uint64 {
	way := uint64(c.lfsr.Next()) % c.ways
	return c.tags.Fill(addr, way)
}
