package accelerator

import (
	"context"
	"sync/atomic"

	"devicemgr/internal/gpu"
	"devicemgr/internal/provider"
)

type fakeInventory struct {
	ids   []provider.ID
	err   error
	calls atomic.Int32
}

func (f *fakeInventory) Name() string { return "fake" }

func (f *fakeInventory) Installed(context.Context) (provider.Set, error) {
	f.calls.Add(1)
	if f.err != nil {
		return provider.Set{}, f.err
	}
	return provider.NewSet(f.ids...), nil
}

type fakeDetector struct {
	detection atomic.Pointer[gpu.Detection]
	err       error
	calls     atomic.Int32
}

func newFakeDetector(d gpu.Detection) *fakeDetector {
	f := &fakeDetector{}
	f.detection.Store(&d)
	return f
}

func (f *fakeDetector) Detect(context.Context) (gpu.Detection, error) {
	f.calls.Add(1)
	if f.err != nil {
		return gpu.Detection{}, f.err
	}
	return *f.detection.Load(), nil
}

func nvidia(name string) gpu.Detection {
	return gpu.Detection{Vendor: gpu.VendorNVIDIA, Name: name}
}

func amd(name string) gpu.Detection {
	return gpu.Detection{Vendor: gpu.VendorAMD, Name: name}
}
