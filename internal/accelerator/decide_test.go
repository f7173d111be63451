package accelerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicemgr/internal/gpu"
	"devicemgr/internal/provider"
)

func TestDecide_Table(t *testing.T) {
	tests := []struct {
		name          string
		detection     gpu.Detection
		installed     []provider.ID
		wantProviders []provider.ID
		wantClass     DeviceClass
		wantReason    ForcedCPUReason
	}{
		{
			name:          "no device ignores stray CUDA provider",
			detection:     gpu.Detection{},
			installed:     []provider.ID{provider.CUDA, provider.CPU},
			wantProviders: []provider.ID{provider.CPU},
			wantClass:     ClassCPU,
		},
		{
			name:          "nvidia with CUDA",
			detection:     nvidia("NVIDIA GeForce RTX 4090"),
			installed:     []provider.ID{provider.CUDA, provider.CPU},
			wantProviders: []provider.ID{provider.CUDA, provider.CPU},
			wantClass:     ClassAccelerator,
		},
		{
			name:          "nvidia without CUDA",
			detection:     nvidia("NVIDIA GeForce RTX 4090"),
			installed:     []provider.ID{provider.CPU},
			wantProviders: []provider.ID{provider.CPU},
			wantClass:     ClassCPU,
			wantReason:    ReasonNoGPUProvider,
		},
		{
			name:          "amd with DirectML pins tensors to CPU",
			detection:     amd("AMD Radeon RX 7900 XTX"),
			installed:     []provider.ID{provider.DirectML, provider.CPU},
			wantProviders: []provider.ID{provider.DirectML, provider.CPU},
			wantClass:     ClassCPU,
			wantReason:    ReasonIncompatibleProvider,
		},
		{
			name:          "amd with MIGraphX",
			detection:     amd("AMD Radeon RX 7900 XTX"),
			installed:     []provider.ID{provider.MIGraphX, provider.CPU},
			wantProviders: []provider.ID{provider.MIGraphX, provider.CPU},
			wantClass:     ClassAccelerator,
		},
		{
			name:          "amd with legacy ROCm",
			detection:     amd("Radeon Pro W7900"),
			installed:     []provider.ID{provider.ROCm, provider.CPU},
			wantProviders: []provider.ID{provider.ROCm, provider.CPU},
			wantClass:     ClassAccelerator,
		},
		{
			name:          "amd without providers",
			detection:     amd("AMD Radeon RX 6800"),
			installed:     []provider.ID{provider.CPU},
			wantProviders: []provider.ID{provider.CPU},
			wantClass:     ClassCPU,
			wantReason:    ReasonNoGPUProvider,
		},
		{
			name:          "amd with CUDA only",
			detection:     amd("AMD Radeon RX 6800"),
			installed:     []provider.ID{provider.CUDA},
			wantProviders: []provider.ID{provider.CPU},
			wantClass:     ClassCPU,
			wantReason:    ReasonNoGPUProvider,
		},
		{
			name:          "DirectML beats MIGraphX and ROCm",
			detection:     amd("AMD Radeon RX 7900 XTX"),
			installed:     []provider.ID{provider.ROCm, provider.MIGraphX, provider.DirectML, provider.CPU},
			wantProviders: []provider.ID{provider.DirectML, provider.CPU},
			wantClass:     ClassCPU,
			wantReason:    ReasonIncompatibleProvider,
		},
		{
			name:          "MIGraphX beats ROCm",
			detection:     amd("AMD Radeon RX 7900 XTX"),
			installed:     []provider.ID{provider.ROCm, provider.MIGraphX},
			wantProviders: []provider.ID{provider.MIGraphX, provider.CPU},
			wantClass:     ClassAccelerator,
		},
		{
			name:          "nvidia ignores AMD providers",
			detection:     nvidia("Tesla T4"),
			installed:     []provider.ID{provider.DirectML, provider.MIGraphX},
			wantProviders: []provider.ID{provider.CPU},
			wantClass:     ClassCPU,
			wantReason:    ReasonNoGPUProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Decide(tt.detection, provider.NewSet(tt.installed...))

			assert.Equal(t, tt.wantProviders, env.Providers())
			assert.Equal(t, tt.wantClass, env.Class())
			assert.Equal(t, tt.wantReason, env.ForcedCPUReason())
			assert.Equal(t, tt.detection.Vendor, env.Vendor())
			require.NoError(t, env.validate())
		})
	}
}

func TestDecide_ProvidersAlwaysEndWithCPU(t *testing.T) {
	vendors := []gpu.Vendor{gpu.VendorNone, gpu.VendorNVIDIA, gpu.VendorAMD}
	all := []provider.ID{provider.CPU, provider.CUDA, provider.DirectML, provider.MIGraphX, provider.ROCm, "TensorrtExecutionProvider"}

	// every subset of the provider universe, for every vendor
	for mask := 0; mask < 1<<len(all); mask++ {
		var ids []provider.ID
		for i, id := range all {
			if mask&(1<<i) != 0 {
				ids = append(ids, id)
			}
		}
		for _, v := range vendors {
			env := Decide(gpu.Detection{Vendor: v, Name: "device"}, provider.NewSet(ids...))
			providers := env.Providers()
			require.NotEmpty(t, providers)
			assert.Equal(t, provider.CPU, providers[len(providers)-1], "vendor %s installed %v", v, ids)
			assert.NoError(t, env.validate(), "vendor %s installed %v", v, ids)
			if v == gpu.VendorNone {
				assert.Equal(t, ClassCPU, env.Class())
			}
		}
	}
}

func TestDecide_NoDeviceClearsDetails(t *testing.T) {
	env := Decide(gpu.Detection{Vendor: gpu.VendorNone, Name: "leftover"}, provider.Fallback())
	assert.Empty(t, env.DeviceName())
	assert.Equal(t, "cpu", env.DeviceString())
}

func TestDecide_DirectMLIsNotAccelerated(t *testing.T) {
	env := Decide(amd("AMD Radeon RX 7900 XTX"), provider.NewSet(provider.DirectML, provider.CPU))

	assert.True(t, env.IsDirectML())
	assert.False(t, env.IsAccelerated())
	assert.Equal(t, "cpu", env.DeviceString())
}

func TestForced(t *testing.T) {
	env := Forced()

	assert.Equal(t, []provider.ID{provider.CPU}, env.Providers())
	assert.Equal(t, ClassCPU, env.Class())
	assert.Equal(t, ReasonUserForced, env.ForcedCPUReason())
	assert.Equal(t, "USER_FORCED", env.ForcedCPUReason().String())
}
