// Package provider models the inference runtime's execution providers and
// how to find out which of them are actually installed.
package provider

import (
	"sort"
	"strings"
)

// ID is an execution provider identifier as reported by the inference runtime.
type ID string

const (
	// CPU is the universal fallback provider, always usable.
	CPU ID = "CPUExecutionProvider"
	// CUDA runs on NVIDIA devices.
	CUDA ID = "CUDAExecutionProvider"
	// DirectML runs on any DirectX 12 GPU on Windows and owns its own device context.
	DirectML ID = "DmlExecutionProvider"
	// MIGraphX is AMD's Linux GPU provider.
	MIGraphX ID = "MIGraphXExecutionProvider"
	// ROCm is AMD's legacy provider, deprecated in favour of MIGraphX.
	ROCm ID = "ROCMExecutionProvider"
)

// String returns the identifier
func (id ID) String() string {
	return string(id)
}

// IsCPU reports whether id is the CPU fallback
func (id ID) IsCPU() bool {
	return id == CPU
}

// Set is an unordered collection of installed providers.
type Set struct {
	ids map[ID]struct{}
}

// NewSet builds a set from ids, ignoring blanks and duplicates.
func NewSet(ids ...ID) Set {
	s := Set{ids: make(map[ID]struct{}, len(ids))}
	for _, id := range ids {
		id = ID(strings.TrimSpace(string(id)))
		if id == "" {
			continue
		}
		s.ids[id] = struct{}{}
	}
	return s
}

// FromStrings builds a set from raw strings.
func FromStrings(names []string) Set {
	ids := make([]ID, 0, len(names))
	for _, n := range names {
		ids = append(ids, ID(n))
	}
	return NewSet(ids...)
}

// Fallback is the minimal inventory used when probing fails.
func Fallback() Set {
	return NewSet(CPU)
}

// Has reports whether id is installed.
func (s Set) Has(id ID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of installed providers.
func (s Set) Len() int {
	return len(s.ids)
}

// List returns the providers sorted by name.
func (s Set) List() []ID {
	out := make([]ID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns List as plain strings.
func (s Set) Strings() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, id := range list {
		out[i] = string(id)
	}
	return out
}

// ParseList extracts provider identifiers from runtime output. It accepts one
// per line, comma separated, or a Python list literal such as
// ['CUDAExecutionProvider', 'CPUExecutionProvider'].
func ParseList(output string) Set {
	fields := strings.FieldsFunc(output, func(r rune) bool {
		switch r {
		case ',', '\n', '\r', '\t', ' ', '[', ']':
			return true
		}
		return false
	})

	ids := make([]ID, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `'"`)
		if f != "" {
			ids = append(ids, ID(f))
		}
	}
	return NewSet(ids...)
}
