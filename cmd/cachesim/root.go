package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/tracer"
	"github.com/sarchlab/cachesim/tracing"
)

var (
	icConfig      string
	dcConfig      string
	l2Config      string
	hierarchyPath string
	tracePath     string
	logMisses     bool
	record        string
	recordPath    string
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "Set-associative cache hierarchy simulator",
	Long: `cachesim replays a memory-access trace through a cache hierarchy.

Trace lines have the form

  F|L|S <pc-hex> <addr-hex> <bytes>

where F is an instruction fetch, L a load, and S a store. Blank lines and
lines starting with # are skipped.`,
	Run: run,
}

func init() {
	// Ambient defaults may come from a .env file, e.g. CACHESIM_DC.
	_ = godotenv.Load()

	flags := rootCmd.Flags()
	flags.StringVar(&icConfig, "ic", os.Getenv("CACHESIM_IC"),
		"instruction cache config (sets:ways:linesz[:policy])")
	flags.StringVar(&dcConfig, "dc", os.Getenv("CACHESIM_DC"),
		"data cache config (sets:ways:linesz[:policy])")
	flags.StringVar(&l2Config, "l2", os.Getenv("CACHESIM_L2"),
		"shared second-level cache config")
	flags.StringVar(&hierarchyPath, "hierarchy", "",
		"YAML hierarchy description (overrides --ic/--dc/--l2)")
	flags.StringVar(&tracePath, "trace", "",
		"access trace file (default stdin)")
	flags.BoolVar(&logMisses, "log", false, "log each miss")
	flags.StringVar(&record, "record", "",
		"record accesses to the given backend (csv or sqlite)")
	flags.StringVar(&recordPath, "record-path", "",
		"output path for --record (default: generated name)")
	flags.StringVar(&logLevel, "log-level", "info", "log verbosity")
}

// replayProcessor holds the PC of the trace line being replayed.
type replayProcessor struct {
	pc uint64
}

func (p *replayProcessor) PC() uint64 { return p.pc }

func run(cmd *cobra.Command, args []string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	proc := &replayProcessor{}
	list, caches := buildHierarchy(proc)
	if list.Empty() {
		logrus.Fatal("no caches configured; pass --ic, --dc, or --hierarchy")
	}

	for _, c := range caches {
		c.SetLog(logMisses)
	}
	attachRecorder(caches)

	replay(proc, list)
}

func buildHierarchy(proc cache.Processor) (*tracer.List, []*cache.Cache) {
	if hierarchyPath != "" {
		spec, err := LoadHierarchy(hierarchyPath)
		if err != nil {
			logrus.Fatalf("unable to read hierarchy: %v", err)
		}
		list, byName, err := spec.Build(proc)
		if err != nil {
			logrus.Fatalf("unable to build hierarchy: %v", err)
		}

		caches := make([]*cache.Cache, 0, len(byName))
		for _, c := range byName {
			caches = append(caches, c)
		}
		return list, caches
	}

	list := &tracer.List{}
	var caches []*cache.Cache

	var l2 *cache.Cache
	if l2Config != "" {
		l2 = cache.Construct(l2Config, "L2$")
		l2.SetProc(proc)
		caches = append(caches, l2)
	}

	if icConfig != "" {
		ic := tracer.NewICache(icConfig)
		ic.SetProc(proc)
		if l2 != nil {
			ic.SetMissHandler(l2)
		}
		list.Register(ic)
		caches = append(caches, ic.Cache())
	}

	if dcConfig != "" {
		dc := tracer.NewDCache(dcConfig)
		dc.SetProc(proc)
		if l2 != nil {
			dc.SetMissHandler(l2)
		}
		list.Register(dc)
		caches = append(caches, dc.Cache())
	}

	return list, caches
}

func attachRecorder(caches []*cache.Cache) {
	if record == "" {
		return
	}

	var writer tracing.Writer
	switch record {
	case "csv":
		w := tracing.NewCSVWriter(recordPath)
		w.Init()
		writer = w
	case "sqlite":
		w := tracing.NewSQLiteWriter(recordPath)
		w.Init()
		writer = w
	default:
		logrus.Fatalf("unknown record backend %q (want csv or sqlite)", record)
	}

	recorder := tracing.NewRecorder(writer)
	for _, c := range caches {
		c.SetListener(recorder)
	}
}

func replay(proc *replayProcessor, list *tracer.List) {
	in := os.Stdin
	name := "<stdin>"
	if tracePath != "" {
		f, err := os.Open(tracePath)
		if err != nil {
			logrus.Fatalf("unable to open trace: %v", err)
		}
		defer f.Close()
		in = f
		name = tracePath
	}

	scanner := bufio.NewScanner(in)
	lineNo := 0
	count := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		acc, err := ParseAccess(line)
		if err != nil {
			logrus.Fatalf("%s:%d: %v", name, lineNo, err)
		}

		proc.pc = acc.PC
		list.Hook(acc.Addr, acc.Bytes, acc.Type)
		count++
	}
	if err := scanner.Err(); err != nil {
		logrus.Fatalf("reading %s: %v", name, err)
	}

	logrus.Infof("replayed %d accesses", count)
}
