// Package cache models levels of a set-associative cache hierarchy driven
// by the memory-access stream of an instruction-set simulator. A cache
// tracks hit/miss outcomes and writebacks only; it never holds data.
package cache

import (
	"fmt"
	"io"
	"sync"
)

// An Accessor services memory accesses. Caches chain to the next level of
// the hierarchy through this interface.
type Accessor interface {
	Access(addr uint64, bytes uint64, store bool)
}

// A Processor exposes the architectural state the replacement policies
// read. Only the current program counter is consulted.
type Processor interface {
	PC() uint64
}

// An AccessListener observes every access after its hit/miss outcome is
// known. The tracing package wires its recorders through this.
type AccessListener interface {
	OnAccess(cache string, pc, addr, bytes uint64, store, miss bool)
}

// A Cache models one level of a write-back, write-allocate cache. Accesses
// run to completion synchronously, including all cascaded writebacks and
// refills. A Cache is not safe for concurrent use.
type Cache struct {
	name     string
	sets     uint64
	ways     uint64
	lineSize uint64
	idxShift uint

	tags   *TagArray
	lfsr   LFSR
	policy ReplacementPolicy

	missHandler Accessor
	proc        Processor
	listener    AccessListener

	log      bool
	diag     io.Writer
	statsOut io.Writer

	stats      Stats
	reportOnce sync.Once
}

// Name returns the cache's name as used in diagnostics and reports.
func (c *Cache) Name() string { return c.name }

// LineSize returns the cache's line size in bytes.
func (c *Cache) LineSize() uint64 { return c.lineSize }

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats { return c.stats }

// SetMissHandler chains the cache to the next level. The handler receives
// dirty victims as stores and refills as reads. The handler must outlive
// the cache.
func (c *Cache) SetMissHandler(h Accessor) { c.missHandler = h }

// SetLog enables per-miss diagnostic lines.
func (c *Cache) SetLog(log bool) { c.log = log }

// SetProc attaches the processor whose PC the replacement policy reads.
func (c *Cache) SetProc(p Processor) { c.proc = p }

// SetListener attaches an access observer.
func (c *Cache) SetListener(l AccessListener) { c.listener = l }

// Access runs one memory access through the cache. On a miss the victim
// writeback and the refill cascade to the miss handler before Access
// returns.
func (c *Cache) Access(addr uint64, bytes uint64, store bool) {
	if store {
		c.stats.WriteAccesses++
		c.stats.BytesWritten += bytes
	} else {
		c.stats.ReadAccesses++
		c.stats.BytesRead += bytes
	}

	if slot := c.policy.CheckTag(c, addr); slot != nil {
		if store {
			*slot |= Dirty
		}
		c.observe(addr, bytes, store, false)

		return
	}

	if store {
		c.stats.WriteMisses++
	} else {
		c.stats.ReadMisses++
	}
	c.logMiss(addr, store)

	victim := c.policy.Victimize(c, addr)

	if victim&(Valid|Dirty) == Valid|Dirty {
		if c.missHandler != nil {
			c.missHandler.Access(c.tags.LineAddr(victim), c.lineSize, true)
		}
		c.stats.Writebacks++
	}

	if c.missHandler != nil {
		c.missHandler.Access(addr&^(c.lineSize-1), c.lineSize, false)
	}

	if store {
		*c.policy.CheckTag(c, addr) |= Dirty
	}
	c.observe(addr, bytes, store, true)
}

// ReportStats writes the fixed-format counter report to the stats output.
// Nothing is printed for a cache that saw no accesses, and the report is
// written at most once per cache.
func (c *Cache) ReportStats() {
	c.reportOnce.Do(func() {
		c.stats.report(c.statsOut, c.name)
	})
}

func (c *Cache) logMiss(addr uint64, store bool) {
	if !c.log {
		return
	}

	kind := "read"
	if store {
		kind = "write"
	}
	fmt.Fprintf(c.diag, "%s %s miss 0x%x\n", c.name, kind, addr)
}

func (c *Cache) observe(addr, bytes uint64, store, miss bool) {
	if c.listener == nil {
		return
	}

	var pc uint64
	if c.proc != nil {
		pc = c.proc.PC()
	}
	c.listener.OnAccess(c.name, pc, addr, bytes, store, miss)
}
