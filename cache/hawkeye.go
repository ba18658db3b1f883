package cache

import (
	"github.com/sarchlab/cachesim/cache/internal/optgen"
	"github.com/sarchlab/cachesim/cache/internal/predictor"
)

const (
	// maxRRPV marks a cache-averse line, evicted first. Zero marks a
	// line just predicted friendly.
	maxRRPV uint32 = 7

	// timerSize bounds the per-set timers. It must be a multiple of
	// optgen.VectorSize for the wrap adjustment below to be sound.
	timerSize uint64 = 1024
)

// A samplerEntry records the last observed use of a line in a sampled set.
type samplerEntry struct {
	lastQuanta uint64
	pc         uint64
	prediction bool
	lru        uint64
}

// hawkeyePolicy implements Hawkeye replacement. A sampler replays the
// recent accesses of each set through an OPTgen instance to recover
// Belady's decisions after the fact, trains a PC predictor with them, and
// lets the predictor steer RRIP victim selection.
type hawkeyePolicy struct {
	sets uint64
	ways uint64

	rrpv       [][]uint32
	signatures [][]uint64
	perSetOpt  []*optgen.OPTgen
	timer      []uint64
	sampler    []map[uint64]*samplerEntry
	demand     *predictor.Predictor
}

func newHawkeyePolicy(sets, ways uint64) *hawkeyePolicy {
	p := &hawkeyePolicy{
		sets:       sets,
		ways:       ways,
		rrpv:       make([][]uint32, sets),
		signatures: make([][]uint64, sets),
		perSetOpt:  make([]*optgen.OPTgen, sets),
		timer:      make([]uint64, sets),
		sampler:    make([]map[uint64]*samplerEntry, sets),
		demand:     predictor.New(),
	}

	for s := uint64(0); s < sets; s++ {
		p.rrpv[s] = make([]uint32, ways)
		for w := range p.rrpv[s] {
			p.rrpv[s][w] = maxRRPV
		}
		p.signatures[s] = make([]uint64, ways)
		// Two ways are reserved as sampling margin. For degenerate
		// associativity the subtraction wraps to an effectively
		// unbounded capacity.
		p.perSetOpt[s] = optgen.New(ways - 2)
		p.sampler[s] = make(map[uint64]*samplerEntry, ways)
	}

	return p
}

// CheckTag runs the Hawkeye bookkeeping for every access: it trains the
// predictor from the sampler's view of the line's last usage interval,
// refreshes the sampler, and re-ranks a resident line's RRPV, before
// answering the ordinary tag probe.
func (p *hawkeyePolicy) CheckTag(c *Cache, addr uint64) *uint64 {
	set := c.tags.SetIndex(addr)
	pc := c.proc.PC()
	currQuanta := p.timer[set] % optgen.VectorSize
	tag := c.tags.TagFor(addr)

	if entry, ok := p.sampler[set][tag]; ok {
		currTimer := p.timer[set]
		if currTimer < entry.lastQuanta {
			currTimer += timerSize
		}
		wrapped := currTimer-entry.lastQuanta > optgen.VectorSize

		if !wrapped && p.perSetOpt[set].ShouldCache(currQuanta, entry.lastQuanta%optgen.VectorSize) {
			p.demand.Increment(entry.pc)
		} else {
			p.demand.Decrement(entry.pc)
		}

		p.perSetOpt[set].AddAccess(currQuanta)
		p.ageSampler(set, entry.lru)
	} else {
		if uint64(len(p.sampler[set])) == p.ways {
			p.evictSamplerLRU(set)
		}
		p.sampler[set][tag] = &samplerEntry{lastQuanta: currQuanta}
		p.perSetOpt[set].AddAccess(currQuanta)
		p.ageSampler(set, p.ways-1)
	}

	friendly := p.demand.Prediction(pc)

	entry := p.sampler[set][tag]
	entry.lastQuanta = p.timer[set]
	entry.pc = pc
	entry.prediction = friendly
	entry.lru = 0

	p.timer[set] = (p.timer[set] + 1) % timerSize

	// A resident line is re-ranked immediately; a missing one is ranked
	// by Victimize when it fills.
	found := false
	var way uint64
	for i := uint64(0); i < p.ways; i++ {
		if tag == *c.tags.Slot(set, i)&^Dirty {
			way = i
			found = true
		}
	}
	if found {
		p.signatures[set][way] = pc
		if friendly {
			p.rrpv[set][way] = 0
		} else {
			p.rrpv[set][way] = maxRRPV
		}
	}

	return c.tags.Probe(addr)
}

// Victimize prefers a cache-averse line. Evicting one carries no training
// signal, so that path installs the new tag and returns immediately.
// Otherwise the oldest cache-friendly line goes, the predictor trains
// negatively against its signature, and the set's RRIP state is refreshed
// for the incoming line.
func (p *hawkeyePolicy) Victimize(c *Cache, addr uint64) uint64 {
	set := c.tags.SetIndex(addr)

	for i := uint64(0); i < p.ways; i++ {
		if p.rrpv[set][i] == maxRRPV {
			return c.tags.Fill(addr, i)
		}
	}

	var victimWay uint64
	var maxRRIP uint32
	for i := uint64(0); i < p.ways; i++ {
		if p.rrpv[set][i] >= maxRRIP {
			maxRRIP = p.rrpv[set][i]
			victimWay = i
		}
	}

	victim := c.tags.Fill(addr, victimWay)

	pc := c.proc.PC()
	friendly := p.demand.Prediction(pc)
	outgoing := p.signatures[set][victimWay]
	p.signatures[set][victimWay] = pc

	if !friendly {
		p.rrpv[set][victimWay] = maxRRPV
	} else {
		p.rrpv[set][victimWay] = 0

		saturated := false
		for i := uint64(0); i < p.ways; i++ {
			if p.rrpv[set][i] == maxRRPV-1 {
				saturated = true
			}
		}
		if !saturated {
			for i := uint64(0); i < p.ways; i++ {
				if p.rrpv[set][i] < maxRRPV-1 {
					p.rrpv[set][i]++
				}
			}
		}

		p.rrpv[set][victimWay] = 0
	}

	// Negative training targets the evicted line's installer, so the
	// outgoing signature is captured before the overwrite above.
	p.demand.Decrement(outgoing)

	return victim
}

// ageSampler increments the lru counter of every entry younger than the
// promoted one, keeping the set's lru values a permutation.
func (p *hawkeyePolicy) ageSampler(set uint64, below uint64) {
	for _, e := range p.sampler[set] {
		if e.lru < below {
			e.lru++
		}
	}
}

func (p *hawkeyePolicy) evictSamplerLRU(set uint64) {
	for tag, e := range p.sampler[set] {
		if e.lru == p.ways-1 {
			delete(p.sampler[set], tag)
			return
		}
	}
}
