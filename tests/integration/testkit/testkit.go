package testkit

import (
	"fmt"
	"net"
	"testing"

	"github.com/sha1n/winref/internal/app"
	"github.com/spf13/pflag"
)

// Service represents a test service that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// TestEnvContext provides access to properties collected during environment startup
type TestEnvContext interface {
	GetProperties() map[string]any
	GetProperty(name string) (any, bool)
}

// TestEnv manages the lifecycle of test services
type TestEnv interface {
	Start() (map[string]any, error)
	Stop() error
	GetContext() TestEnvContext
}

type testEnvContextImpl struct {
	properties map[string]any
}

func (c *testEnvContextImpl) GetProperties() map[string]any {
	return c.properties
}

func (c *testEnvContextImpl) GetProperty(name string) (any, bool) {
	val, ok := c.properties[name]
	return val, ok
}

type testEnvImpl struct {
	services []Service
	context  *testEnvContextImpl
}

// NewTestEnv creates a new test environment with the given services
func NewTestEnv(services ...Service) TestEnv {
	return &testEnvImpl{
		services: services,
		context:  &testEnvContextImpl{properties: make(map[string]any)},
	}
}

func (e *testEnvImpl) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			return nil, err
		}
		for k, v := range props {
			e.context.properties[k] = v
		}
	}
	return e.context.properties, nil
}

func (e *testEnvImpl) Stop() error {
	var lastErr error
	// Stop in reverse order
	for i := len(e.services) - 1; i >= 0; i-- {
		if err := e.services[i].Stop(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (e *testEnvImpl) GetContext() TestEnvContext {
	return e.context
}

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	return getFreePortWithAddr("localhost:0")
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

func getFreePortWithAddr(addrStr string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", addrStr)
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FlagOptions configures NewTestFlags
type FlagOptions struct {
	Port          int    // Uses free port if 0
	Host          string // Defaults to "localhost"
	Source        string // Omitted when empty
	IndexLocation string // Omitted when empty
	Mode          string // Omitted when empty
	Logging       string // Defaults to "Off"
}

// NewTestFlags creates a pflag.FlagSet of the lookup service configured for testing
func NewTestFlags(t testing.TB, opts *FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags, err := NewServiceFlags(opts)
	if err != nil {
		t.Fatalf("Failed to create flags: %v", err)
	}
	return flags
}

// NewServiceFlags is NewTestFlags for callers without a testing.TB, such as TestMain
func NewServiceFlags(opts *FlagOptions) (*pflag.FlagSet, error) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterServiceFlags(flags)

	o := FlagOptions{Host: "localhost", Logging: "Off"}
	if opts != nil {
		if opts.Port != 0 {
			o.Port = opts.Port
		}
		if opts.Host != "" {
			o.Host = opts.Host
		}
		if opts.Logging != "" {
			o.Logging = opts.Logging
		}
		o.Source = opts.Source
		o.IndexLocation = opts.IndexLocation
		o.Mode = opts.Mode
	}

	if o.Port == 0 {
		port, err := GetFreePort()
		if err != nil {
			return nil, err
		}
		o.Port = port
	}

	_ = flags.Set("port", fmt.Sprintf("%d", o.Port))
	_ = flags.Set("host", o.Host)
	_ = flags.Set("logging", o.Logging)
	if o.Source != "" {
		_ = flags.Set("source", o.Source)
	}
	if o.IndexLocation != "" {
		_ = flags.Set("index-location", o.IndexLocation)
	}
	if o.Mode != "" {
		_ = flags.Set("mode", o.Mode)
	}

	return flags, nil
}
