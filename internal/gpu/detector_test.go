package gpu

import (
	"context"
	"errors"
	"testing"

	"devicemgr/internal/logging"
	"devicemgr/internal/probe"
)

func TestDetector_Detect_NVIDIA(t *testing.T) {
	rt := &fakeRuntime{
		count: 2,
		names: []string{"NVIDIA GeForce RTX 4090", "NVIDIA GeForce RTX 3080"},
		props: Properties{TotalMemoryBytes: 24 << 30, ComputeMajor: 8, ComputeMinor: 9},
	}

	detection, err := NewDetector(rt, logging.Nop()).Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if detection.Vendor != VendorNVIDIA {
		t.Errorf("Expected NVIDIA, got: %s", detection.Vendor)
	}
	if detection.Name != "NVIDIA GeForce RTX 4090" {
		t.Errorf("Expected device 0 name, got: %s", detection.Name)
	}
	if detection.Properties.ComputeCapability() != "8.9" {
		t.Errorf("Expected compute capability 8.9, got: %s", detection.Properties.ComputeCapability())
	}
	if detection.Runtime != "fake" {
		t.Errorf("Expected runtime name recorded, got: %s", detection.Runtime)
	}
}

func TestDetector_Detect_AMD(t *testing.T) {
	rt := &fakeRuntime{count: 1, names: []string{"AMD Radeon RX 6800 XT"}}

	detection, err := NewDetector(rt, logging.Nop()).Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if detection.Vendor != VendorAMD {
		t.Errorf("Expected AMD, got: %s", detection.Vendor)
	}
	if !detection.Present() {
		t.Error("Expected Present() to be true")
	}
}

func TestDetector_Detect_NoDevices(t *testing.T) {
	detection, err := NewDetector(&fakeRuntime{count: 0}, logging.Nop()).Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if detection.Vendor != VendorNone || detection.Name != "" {
		t.Errorf("Expected (NONE, \"\"), got: (%s, %q)", detection.Vendor, detection.Name)
	}
	if detection.Present() {
		t.Error("Expected Present() to be false")
	}
}

func TestDetector_Detect_PropertiesFailureIsNotFatal(t *testing.T) {
	rt := &fakeRuntime{count: 1, names: []string{"NVIDIA A100"}, propsErr: errors.New("not supported")}

	detection, err := NewDetector(rt, logging.Nop()).Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if detection.Vendor != VendorNVIDIA {
		t.Errorf("Expected NVIDIA, got: %s", detection.Vendor)
	}
	if detection.Properties != (Properties{}) {
		t.Errorf("Expected zero properties, got: %+v", detection.Properties)
	}
}

func TestDetector_Detect_Failures(t *testing.T) {
	tests := []struct {
		name string
		rt   *fakeRuntime
	}{
		{"count fails", &fakeRuntime{countErr: errors.New("driver not loaded")}},
		{"name fails", &fakeRuntime{count: 1, nameErr: errors.New("permission denied")}},
		{"already unavailable", &fakeRuntime{countErr: probe.Unavailable("nvml init", nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDetector(tt.rt, logging.Nop()).Detect(context.Background())
			if !errors.Is(err, probe.ErrUnavailable) {
				t.Errorf("Expected ErrUnavailable, got: %v", err)
			}
		})
	}
}

func TestDetector_Detect_CancelledContext(t *testing.T) {
	rt := &fakeRuntime{count: 1, names: []string{"NVIDIA A100"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDetector(rt, logging.Nop()).Detect(ctx)
	if !errors.Is(err, probe.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got: %v", err)
	}
	if rt.countCalls.Load() != 0 {
		t.Error("Expected no runtime calls after cancellation")
	}
}
