// Package tracer classifies the memory accesses of an instruction-set
// simulator and routes them to the cache models that care about them.
package tracer

import "github.com/sarchlab/cachesim/cache"

// AccessType tells a tracer what kind of memory access occurred.
type AccessType int

const (
	Fetch AccessType = iota
	Load
	Store
)

func (t AccessType) String() string {
	switch t {
	case Fetch:
		return "fetch"
	case Load:
		return "load"
	case Store:
		return "store"
	}

	return "unknown"
}

// A MemTracer observes a memory-access stream.
type MemTracer interface {
	// InterestedInRange reports whether the tracer wants accesses of
	// the given type in [begin, end).
	InterestedInRange(begin, end uint64, typ AccessType) bool

	// Trace delivers one access.
	Trace(addr uint64, bytes uint64, typ AccessType)
}

// A CacheTracer feeds a cache model from the access stream. ICache and
// DCache embed it to select the accesses they model.
type CacheTracer struct {
	cache *cache.Cache
}

// Cache returns the underlying cache model.
func (t *CacheTracer) Cache() *cache.Cache { return t.cache }

// SetMissHandler chains the underlying cache to the next level.
func (t *CacheTracer) SetMissHandler(h cache.Accessor) { t.cache.SetMissHandler(h) }

// SetLog enables per-miss diagnostics on the underlying cache.
func (t *CacheTracer) SetLog(log bool) { t.cache.SetLog(log) }

// SetProc attaches the processor to the underlying cache.
func (t *CacheTracer) SetProc(p cache.Processor) { t.cache.SetProc(p) }

// An ICache models an instruction cache; it consumes fetches only.
type ICache struct {
	CacheTracer
}

// NewICache constructs an instruction cache named "I$" from a
// configuration string.
func NewICache(config string) *ICache {
	return WrapICache(cache.Construct(config, "I$"))
}

// WrapICache adapts an existing cache model as an instruction tracer.
func WrapICache(c *cache.Cache) *ICache {
	return &ICache{CacheTracer{c}}
}

func (t *ICache) InterestedInRange(begin, end uint64, typ AccessType) bool {
	return typ == Fetch
}

func (t *ICache) Trace(addr uint64, bytes uint64, typ AccessType) {
	if typ == Fetch {
		t.cache.Access(addr, bytes, false)
	}
}

// A DCache models a data cache; it consumes loads and stores.
type DCache struct {
	CacheTracer
}

// NewDCache constructs a data cache named "D$" from a configuration
// string.
func NewDCache(config string) *DCache {
	return WrapDCache(cache.Construct(config, "D$"))
}

// WrapDCache adapts an existing cache model as a data tracer.
func WrapDCache(c *cache.Cache) *DCache {
	return &DCache{CacheTracer{c}}
}

func (t *DCache) InterestedInRange(begin, end uint64, typ AccessType) bool {
	return typ == Load || typ == Store
}

func (t *DCache) Trace(addr uint64, bytes uint64, typ AccessType) {
	if typ == Load || typ == Store {
		t.cache.Access(addr, bytes, typ == Store)
	}
}

// A List fans one access out to every registered tracer that is
// interested in it.
type List struct {
	tracers []MemTracer
}

// Register appends a tracer to the list.
func (l *List) Register(t MemTracer) {
	l.tracers = append(l.tracers, t)
}

// Empty reports whether no tracer is registered.
func (l *List) Empty() bool { return len(l.tracers) == 0 }

// Hook delivers one access to every interested tracer.
func (l *List) Hook(addr uint64, bytes uint64, typ AccessType) {
	for _, t := range l.tracers {
		if t.InterestedInRange(addr, addr+bytes, typ) {
			t.Trace(addr, bytes, typ)
		}
	}
}
