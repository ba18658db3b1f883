package cache

// Tag word layout. Bit 63 marks a valid line and bit 62 a dirty one. The
// remaining bits carry (addr >> idxShift), which covers the set index and
// the tag proper, so a zeroed slot matches no lookup.
const (
	Valid uint64 = 1 << 63
	Dirty uint64 = 1 << 62
)

// A TagArray is the dense tag store of a set-associative cache. The slot
// for (set, way) lives at set*ways+way. All slots start invalid.
type TagArray struct {
	sets     uint64
	ways     uint64
	idxShift uint
	slots    []uint64
}

// NewTagArray returns a zeroed tag array for the given geometry.
func NewTagArray(sets, ways uint64, idxShift uint) *TagArray {
	return &TagArray{
		sets:     sets,
		ways:     ways,
		idxShift: idxShift,
		slots:    make([]uint64, sets*ways),
	}
}

// SetIndex returns the set an address maps to.
func (t *TagArray) SetIndex(addr uint64) uint64 {
	return (addr >> t.idxShift) & (t.sets - 1)
}

// TagFor returns the canonical stored tag word for a line holding addr.
func (t *TagArray) TagFor(addr uint64) uint64 {
	return (addr >> t.idxShift) | Valid
}

// Probe scans the set addr maps to and returns a handle to the matching
// slot, or nil. Dirty is masked out of the comparison; Valid is not, so
// empty slots never match.
func (t *TagArray) Probe(addr uint64) *uint64 {
	base := t.SetIndex(addr) * t.ways
	tag := t.TagFor(addr)

	for i := uint64(0); i < t.ways; i++ {
		if tag == t.slots[base+i]&^Dirty {
			return &t.slots[base+i]
		}
	}

	return nil
}

// Slot returns a handle to one way of a set.
func (t *TagArray) Slot(set, way uint64) *uint64 {
	return &t.slots[set*t.ways+way]
}

// Fill installs addr into the given way of its set with Dirty clear and
// returns the previous tag word.
func (t *TagArray) Fill(addr, way uint64) uint64 {
	slot := t.Slot(t.SetIndex(addr), way)
	victim := *slot
	*slot = t.TagFor(addr)

	return victim
}

// LineAddr reconstructs the line address a tag word stands for.
func (t *TagArray) LineAddr(tag uint64) uint64 {
	return (tag &^ (Valid | Dirty)) << t.idxShift
}
