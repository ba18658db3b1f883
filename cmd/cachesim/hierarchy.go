package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/tracer"
)

// A HierarchySpec describes named caches and their chaining.
type HierarchySpec struct {
	Caches []CacheSpec `yaml:"caches"`
}

// A CacheSpec describes one cache of the hierarchy. Kind selects how the
// cache is fed: "icache" consumes fetches, "dcache" loads and stores, and
// "plain" (the default) is only reachable as a lower level through Below.
type CacheSpec struct {
	Name   string `yaml:"name"`
	Config string `yaml:"config"`
	Kind   string `yaml:"kind"`
	Below  string `yaml:"below"`
}

// ParseHierarchy parses a YAML hierarchy description.
func ParseHierarchy(data []byte) (*HierarchySpec, error) {
	spec := &HierarchySpec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, err
	}
	if len(spec.Caches) == 0 {
		return nil, errors.New("hierarchy: no caches")
	}

	return spec, nil
}

// LoadHierarchy reads and parses a YAML hierarchy file.
func LoadHierarchy(path string) (*HierarchySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseHierarchy(data)
}

// Build constructs the caches, wires the miss-handler chain, and
// registers tracers for the icache and dcache kinds.
func (s *HierarchySpec) Build(proc cache.Processor) (
	*tracer.List,
	map[string]*cache.Cache,
	error,
) {
	caches := make(map[string]*cache.Cache, len(s.Caches))
	for _, cs := range s.Caches {
		if cs.Name == "" {
			return nil, nil, errors.New("hierarchy: cache without a name")
		}
		if _, ok := caches[cs.Name]; ok {
			return nil, nil, fmt.Errorf(
				"hierarchy: duplicate cache %q", cs.Name)
		}

		cfg, err := cache.ParseConfig(cs.Config)
		if err != nil {
			return nil, nil, fmt.Errorf("hierarchy: cache %q: %w", cs.Name, err)
		}

		c := cache.MakeBuilder().WithConfig(cfg).Build(cs.Name)
		c.SetProc(proc)
		caches[cs.Name] = c
	}

	list := &tracer.List{}
	for _, cs := range s.Caches {
		c := caches[cs.Name]

		if cs.Below != "" {
			below, ok := caches[cs.Below]
			if !ok {
				return nil, nil, fmt.Errorf(
					"hierarchy: %q chains to unknown cache %q",
					cs.Name, cs.Below)
			}
			c.SetMissHandler(below)
		}

		switch cs.Kind {
		case "icache":
			list.Register(tracer.WrapICache(c))
		case "dcache":
			list.Register(tracer.WrapDCache(c))
		case "", "plain":
			// Fed only through the chain.
		default:
			return nil, nil, fmt.Errorf(
				"hierarchy: %q: unknown kind %q", cs.Name, cs.Kind)
		}
	}

	return list, caches, nil
}
