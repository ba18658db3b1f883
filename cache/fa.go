package cache

import "sort"

// faPolicy keys lines by their full tag instead of a fixed way layout.
// Selected automatically for single-set caches wide enough that scanning
// ways on every probe would dominate.
type faPolicy struct {
	lines map[uint64]*uint64
}

func newFAPolicy(ways uint64) *faPolicy {
	return &faPolicy{lines: make(map[uint64]*uint64, ways)}
}

func (p *faPolicy) CheckTag(c *Cache, addr uint64) *uint64 {
	return p.lines[addr>>c.idxShift]
}

// Victimize evicts only once the map is full. The victim is the entry at
// the LFSR offset in ascending key order, so eviction is deterministic
// for a given access stream.
func (p *faPolicy) Victimize(c *Cache, addr uint64) uint64 {
	var victim uint64

	if uint64(len(p.lines)) == c.ways {
		keys := make([]uint64, 0, len(p.lines))
		for k := range p.lines {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		k := keys[uint64(c.lfsr.Next())%c.ways]
		victim = *p.lines[k]
		delete(p.lines, k)
	}

	word := c.tags.TagFor(addr)
	p.lines[addr>>c.idxShift] = &word

	return victim
}
