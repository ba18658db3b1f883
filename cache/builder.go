package cache

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tebeka/atexit"
)

// Policy names accepted in configuration strings. Anything else falls
// through to the default selection.
const (
	PolicyLinear  = "linear"
	PolicyHawkeye = "hawkeye"
)

// A Config is the parsed form of a sets:ways:linesz[:policy] string.
type Config struct {
	Sets     uint64
	Ways     uint64
	LineSize uint64
	Policy   string
}

// ParseConfig parses and validates a cache configuration string.
func ParseConfig(s string) (Config, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return Config{}, fmt.Errorf("config %q: want sets:ways:linesz[:policy]", s)
	}

	fields := [3]uint64{}
	names := [3]string{"sets", "ways", "linesz"}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(parts[i], 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config %q: bad %s: %w", s, names[i], err)
		}
		fields[i] = v
	}

	cfg := Config{Sets: fields[0], Ways: fields[1], LineSize: fields[2]}
	if len(parts) == 4 {
		cfg.Policy = parts[3]
	}

	if cfg.Sets == 0 || cfg.Sets&(cfg.Sets-1) != 0 {
		return Config{}, fmt.Errorf("config %q: sets must be a power of two", s)
	}
	if cfg.Ways == 0 {
		return Config{}, fmt.Errorf("config %q: ways must be positive", s)
	}
	if cfg.LineSize < 8 || cfg.LineSize&(cfg.LineSize-1) != 0 {
		return Config{}, fmt.Errorf(
			"config %q: linesz must be a power of two and at least 8", s)
	}

	return cfg, nil
}

// Usage writes the cache configuration help text.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "Cache configurations must be of the form")
	fmt.Fprintln(w, "  sets:ways:blocksize")
	fmt.Fprintln(w, "where sets, ways, and blocksize are positive integers, with")
	fmt.Fprintln(w, "sets and blocksize both powers of two and blocksize at least 8.")
}

// Builder can build caches.
type Builder struct {
	sets     uint64
	ways     uint64
	lineSize uint64
	policy   string

	diag         io.Writer
	statsOut     io.Writer
	reportAtExit bool
}

// MakeBuilder creates a builder with a small default geometry, stderr
// diagnostics, stdout statistics, and the end-of-run report enabled.
func MakeBuilder() Builder {
	return Builder{
		sets:         64,
		ways:         4,
		lineSize:     64,
		diag:         os.Stderr,
		statsOut:     os.Stdout,
		reportAtExit: true,
	}
}

// WithGeometry sets the cache dimensions.
func (b Builder) WithGeometry(sets, ways, lineSize uint64) Builder {
	b.sets = sets
	b.ways = ways
	b.lineSize = lineSize
	return b
}

// WithPolicy selects the replacement policy by name. The empty string
// selects the default: fully-associative for wide single-set caches,
// random otherwise.
func (b Builder) WithPolicy(policy string) Builder {
	b.policy = policy
	return b
}

// WithConfig applies a parsed configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.sets = cfg.Sets
	b.ways = cfg.Ways
	b.lineSize = cfg.LineSize
	b.policy = cfg.Policy
	return b
}

// WithDiagOutput redirects the per-miss diagnostic lines.
func (b Builder) WithDiagOutput(w io.Writer) Builder {
	b.diag = w
	return b
}

// WithStatsOutput redirects the statistics report.
func (b Builder) WithStatsOutput(w io.Writer) Builder {
	b.statsOut = w
	return b
}

// WithoutAtExitReport skips the end-of-run report registration. The
// report stays available through ReportStats.
func (b Builder) WithoutAtExitReport() Builder {
	b.reportAtExit = false
	return b
}

// Build builds a cache. Invalid geometry panics; external input goes
// through ParseConfig first.
func (b Builder) Build(name string) *Cache {
	b.mustHaveValidGeometry()

	idxShift := uint(0)
	for x := b.lineSize; x > 1; x >>= 1 {
		idxShift++
	}

	c := &Cache{
		name:     name,
		sets:     b.sets,
		ways:     b.ways,
		lineSize: b.lineSize,
		idxShift: idxShift,
		tags:     NewTagArray(b.sets, b.ways, idxShift),
		lfsr:     NewLFSR(),
		diag:     b.diag,
		statsOut: b.statsOut,
	}
	c.policy = b.createPolicy()

	if b.reportAtExit {
		atexit.Register(c.ReportStats)
	}

	return c
}

func (b Builder) createPolicy() ReplacementPolicy {
	switch b.policy {
	case PolicyLinear:
		return newLinearPolicy()
	case PolicyHawkeye:
		return newHawkeyePolicy(b.sets, b.ways)
	default:
		// Threshold is empirical: scanning a handful of ways beats
		// the map for small single-set caches.
		if b.ways > 4 && b.sets == 1 {
			return newFAPolicy(b.ways)
		}
		return randomPolicy{}
	}
}

func (b Builder) mustHaveValidGeometry() {
	if b.sets == 0 || b.sets&(b.sets-1) != 0 {
		panic("cache sets must be a power of two")
	}
	if b.ways == 0 {
		panic("cache must have at least one way")
	}
	if b.lineSize < 8 || b.lineSize&(b.lineSize-1) != 0 {
		panic("cache line size must be a power of two and at least 8")
	}
}

// Construct builds a cache from a configuration string. A malformed
// configuration prints the usage text to stderr and terminates the
// process, matching the command-line contract.
func Construct(config, name string) *Cache {
	cfg, err := ParseConfig(config)
	if err != nil {
		Usage(os.Stderr)
		atexit.Exit(1)
	}

	return MakeBuilder().WithConfig(cfg).Build(name)
}
