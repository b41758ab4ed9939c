package corpus

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

type gitCall struct {
	dir  string
	args []string
}

type gitResult struct {
	out []byte
	err error
}

// fakeGit answers git invocations by subcommand. onClone, when set, runs
// against the clone destination before the clone result is returned.
type fakeGit struct {
	mu      sync.Mutex
	results map[string]gitResult
	calls   []gitCall
	onClone func(dest string) error
}

func newFakeGit() *fakeGit {
	return &fakeGit{results: make(map[string]gitResult)}
}

func (f *fakeGit) on(subcommand string, out []byte, err error) *fakeGit {
	f.results[subcommand] = gitResult{out: out, err: err}
	return f
}

func (f *fakeGit) Run(_ context.Context, dir string, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, gitCall{dir: dir, args: args})
	if name != "git" || len(args) == 0 {
		return nil, fmt.Errorf("unexpected command %s %v", name, args)
	}

	res, ok := f.results[args[0]]
	if !ok {
		return nil, fmt.Errorf("no result for git %s", args[0])
	}
	if args[0] == "clone" && res.err == nil && f.onClone != nil {
		if err := f.onClone(args[len(args)-1]); err != nil {
			return nil, err
		}
	}
	return res.out, res.err
}

func (f *fakeGit) lastCall(t *testing.T) gitCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("Expected at least one git call")
	}
	return f.calls[len(f.calls)-1]
}
