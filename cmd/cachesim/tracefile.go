package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/tracer"
)

// An Access is one parsed trace line.
type Access struct {
	PC    uint64
	Addr  uint64
	Bytes uint64
	Type  tracer.AccessType
}

// ParseAccess parses one trace line of the form
// "F|L|S <pc-hex> <addr-hex> <bytes>". PC and address accept an optional
// 0x prefix; bytes is decimal.
func ParseAccess(line string) (Access, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Access{}, fmt.Errorf(
			"trace line %q: want TYPE PC ADDR BYTES", line)
	}

	var typ tracer.AccessType
	switch fields[0] {
	case "F":
		typ = tracer.Fetch
	case "L":
		typ = tracer.Load
	case "S":
		typ = tracer.Store
	default:
		return Access{}, fmt.Errorf(
			"trace line %q: unknown access type %q", line, fields[0])
	}

	pc, err := parseHex(fields[1])
	if err != nil {
		return Access{}, fmt.Errorf("trace line %q: bad pc: %w", line, err)
	}
	addr, err := parseHex(fields[2])
	if err != nil {
		return Access{}, fmt.Errorf("trace line %q: bad addr: %w", line, err)
	}
	bytes, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return Access{}, fmt.Errorf("trace line %q: bad bytes: %w", line, err)
	}
	if bytes == 0 {
		return Access{}, fmt.Errorf("trace line %q: zero-byte access", line)
	}

	return Access{PC: pc, Addr: addr, Bytes: bytes, Type: typ}, nil
}

func parseHex(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}
