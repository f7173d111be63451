package accelerator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"devicemgr/internal/gpu"
	"devicemgr/internal/provider"
)

type fixedMemory struct {
	used, total int
	calls       int
}

func (m *fixedMemory) QueryMemory(context.Context) (int, int) {
	m.calls++
	return m.used, m.total
}

func TestDescribe_Accelerated(t *testing.T) {
	det := gpu.Detection{
		Vendor:     gpu.VendorNVIDIA,
		Name:       "NVIDIA RTX A6000",
		Properties: gpu.Properties{TotalMemoryBytes: 48 << 30, ComputeMajor: 8, ComputeMinor: 6},
	}
	env := Decide(det, provider.NewSet(provider.CUDA, provider.CPU))
	mem := &fixedMemory{used: 1024, total: 49140}

	info := Describe(context.Background(), env, mem)

	assert.Equal(t, "cuda", info.DeviceType)
	assert.Equal(t, "cuda:0", info.DeviceString)
	assert.True(t, info.GPUAvailable)
	assert.Equal(t, "NVIDIA RTX A6000", info.GPUName)
	assert.Equal(t, "8.6", info.ComputeCapability)
	require.NotNil(t, info.MemoryUsedMB)
	assert.Equal(t, 1024, *info.MemoryUsedMB)
	assert.Equal(t, 49140, *info.MemoryTotalMB)
	assert.Equal(t, 1, mem.calls)
	assert.Equal(t, env.Fingerprint(), info.Fingerprint)
}

func TestDescribe_CPUOmitsDeviceDetails(t *testing.T) {
	env := Decide(amd("AMD Radeon RX 7900 XTX"), provider.NewSet(provider.DirectML, provider.CPU))
	mem := &fixedMemory{used: 1, total: 2}

	info := Describe(context.Background(), env, mem)

	assert.False(t, info.GPUAvailable)
	assert.True(t, info.DirectML)
	assert.Equal(t, "INCOMPATIBLE_PROVIDER", info.ForcedCPUReason)
	assert.Empty(t, info.GPUName)
	assert.Nil(t, info.MemoryUsedMB)
	assert.Zero(t, mem.calls)

	data, err := json.Marshal(info)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "memory_used_mb")
	assert.Contains(t, string(data), `"providers":["DmlExecutionProvider","CPUExecutionProvider"]`)
}

func TestDescribe_YAML(t *testing.T) {
	info := Describe(context.Background(), Forced(), nil)

	data, err := yaml.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(data), "forced_cpu_reason: USER_FORCED")
	assert.Contains(t, string(data), "device_string: cpu")
}
