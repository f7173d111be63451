package gpu

import (
	"errors"
	"sync/atomic"
)

// fakeRuntime is an in-memory Runtime
type fakeRuntime struct {
	name     string
	count    int
	countErr error
	names    []string
	nameErr  error
	props    Properties
	propsErr error
	usage    MemoryUsage
	usageErr error

	countCalls atomic.Int32
}

func (f *fakeRuntime) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeRuntime) DeviceCount() (int, error) {
	f.countCalls.Add(1)
	return f.count, f.countErr
}

func (f *fakeRuntime) DeviceName(index int) (string, error) {
	if f.nameErr != nil {
		return "", f.nameErr
	}
	if index >= len(f.names) {
		return "", errors.New("index out of range")
	}
	return f.names[index], nil
}

func (f *fakeRuntime) DeviceProperties(int) (Properties, error) {
	return f.props, f.propsErr
}

func (f *fakeRuntime) MemoryUsage(int) (MemoryUsage, error) {
	return f.usage, f.usageErr
}
