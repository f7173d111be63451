// Package hostinfo summarises the host the resolver runs on.
package hostinfo

import (
	"fmt"

	"github.com/elastic/go-sysinfo"
	"github.com/elastic/go-sysinfo/types"
)

// Info is the host summary attached to a device description
type Info struct {
	Hostname      string `json:"hostname" yaml:"hostname"`
	OS            string `json:"os" yaml:"os"`
	Architecture  string `json:"architecture" yaml:"architecture"`
	KernelVersion string `json:"kernel_version,omitempty" yaml:"kernel_version,omitempty"`
	MemoryTotal   uint64 `json:"memory_total_bytes,omitempty" yaml:"memory_total_bytes,omitempty"`
}

// Collector reads host facts
type Collector func() (*Info, error)

// Collect reads the current host through go-sysinfo. A missing memory
// reading leaves MemoryTotal zero rather than failing.
func Collect() (*Info, error) {
	host, err := sysinfo.Host()
	if err != nil {
		return nil, fmt.Errorf("read host info: %w", err)
	}
	info := FromHost(host.Info())
	if mem, err := host.Memory(); err == nil {
		info.MemoryTotal = mem.Total
	}
	return info, nil
}

// FromHost converts go-sysinfo's host record
func FromHost(h types.HostInfo) *Info {
	info := &Info{
		Hostname:      h.Hostname,
		Architecture:  h.Architecture,
		KernelVersion: h.KernelVersion,
	}
	if h.OS != nil {
		info.OS = h.OS.Name
		if h.OS.Version != "" {
			info.OS += " " + h.OS.Version
		}
	}
	return info
}
