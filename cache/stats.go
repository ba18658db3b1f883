package cache

import (
	"fmt"
	"io"
)

// Stats holds the monotonic performance counters of one cache.
type Stats struct {
	BytesRead     uint64
	BytesWritten  uint64
	ReadAccesses  uint64
	WriteAccesses uint64
	ReadMisses    uint64
	WriteMisses   uint64
	Writebacks    uint64
}

// MissRate returns the overall miss percentage. A cache with no accesses
// has a zero miss rate.
func (s Stats) MissRate() float64 {
	total := s.ReadAccesses + s.WriteAccesses
	if total == 0 {
		return 0
	}

	return 100 * float64(s.ReadMisses+s.WriteMisses) / float64(total)
}

func (s Stats) report(w io.Writer, name string) {
	if s.ReadAccesses+s.WriteAccesses == 0 {
		return
	}

	fmt.Fprintf(w, "%s Bytes Read:            %d\n", name, s.BytesRead)
	fmt.Fprintf(w, "%s Bytes Written:         %d\n", name, s.BytesWritten)
	fmt.Fprintf(w, "%s Read Accesses:         %d\n", name, s.ReadAccesses)
	fmt.Fprintf(w, "%s Write Accesses:        %d\n", name, s.WriteAccesses)
	fmt.Fprintf(w, "%s Read Misses:           %d\n", name, s.ReadMisses)
	fmt.Fprintf(w, "%s Write Misses:          %d\n", name, s.WriteMisses)
	fmt.Fprintf(w, "%s Writebacks:            %d\n", name, s.Writebacks)
	fmt.Fprintf(w, "%s Miss Rate:             %.3f%%\n", name, s.MissRate())
}
