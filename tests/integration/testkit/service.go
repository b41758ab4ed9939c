package testkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sha1n/winref/internal/app"
	"github.com/spf13/pflag"
)

// WinrefService runs the lookup service in-process and publishes its address
// as the "base_url" property.
type WinrefService struct {
	flags   func(source, indexDir string) (*pflag.FlagSet, error)
	source  func() string
	indexes string

	cancel context.CancelFunc
	done   chan error
}

// NewWinrefService creates a service over the corpus reported by source.
// flags builds the service flags for a source and an index directory.
func NewWinrefService(source func() string, flags func(source, indexDir string) (*pflag.FlagSet, error)) *WinrefService {
	return &WinrefService{flags: flags, source: source}
}

// Start builds the index and waits until the service answers health checks.
func (s *WinrefService) Start() (map[string]any, error) {
	indexes, err := os.MkdirTemp("", "winref-index-*")
	if err != nil {
		return nil, err
	}
	s.indexes = indexes

	flags, err := s.flags(s.source(), filepath.Join(indexes, "index"))
	if err != nil {
		_ = os.RemoveAll(indexes)
		s.indexes = ""
		return nil, err
	}
	host, _ := flags.GetString("host")
	port, _ := flags.GetInt("port")
	baseURL := fmt.Sprintf("http://%s:%d", host, port)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- app.RunService(ctx, app.DefaultServiceParams(), flags, "test")
	}()

	if exited, err := waitForHealth(baseURL, s.done, 30*time.Second); err != nil {
		if exited {
			s.cancel()
			s.cancel = nil
		}
		_ = s.Stop()
		return nil, err
	}
	return map[string]any{"base_url": baseURL}, nil
}

// Stop shuts the service down and removes its index.
func (s *WinrefService) Stop() error {
	var err error
	if s.cancel != nil {
		s.cancel()
		select {
		case err = <-s.done:
		case <-time.After(15 * time.Second):
			err = errors.New("service did not stop")
		}
		s.cancel = nil
	}
	if s.indexes != "" {
		err = errors.Join(err, os.RemoveAll(s.indexes))
		s.indexes = ""
	}
	return err
}

// GetName returns the service name.
func (s *WinrefService) GetName() string {
	return "winref-service"
}

func waitForHealth(baseURL string, done <-chan error, timeout time.Duration) (exited bool, err error) {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case err := <-done:
			return true, fmt.Errorf("service exited during startup: %v", err)
		default:
		}

		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return false, nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false, fmt.Errorf("service at %s not healthy after %s", baseURL, timeout)
}
