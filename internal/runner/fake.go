package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
)

// Response is the scripted result of one command line.
type Response struct {
	Output string
	Err    error
}

// Fake is a scripted Runner for tests. Commands are keyed by their
// CommandLine rendering. A tool is available when it was registered with
// Tools or when any scripted command starts with it.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	tools     map[string]bool
	calls     []string
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		responses: make(map[string]Response),
		tools:     make(map[string]bool),
	}
}

// On scripts the output of a command and marks its tool as available.
func (f *Fake) On(output string, name string, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[CommandLine(name, args...)] = Response{Output: output}
	f.tools[name] = true
	return f
}

// Fail scripts a failing command and marks its tool as available.
func (f *Fake) Fail(err error, name string, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[CommandLine(name, args...)] = Response{Err: err}
	f.tools[name] = true
	return f
}

// Tools marks names as present on PATH without scripting any output.
func (f *Fake) Tools(names ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.tools[n] = true
	}
	return f
}

// Missing removes names from PATH.
func (f *Fake) Missing(names ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		delete(f.tools, n)
	}
	return f
}

// Calls returns the command lines executed so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Available implements Runner.
func (f *Fake) Available(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tools[name]
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, description, name string, args ...string) (string, error) {
	line := CommandLine(name, args...)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, line)

	if !f.tools[name] {
		return "", errors.New(errors.ErrCodeToolMissing, fmt.Sprintf("%s not available", name))
	}
	resp, ok := f.responses[line]
	if !ok {
		return "", errors.New(errors.ErrCodeToolFailed, fmt.Sprintf("error executing %s: no scripted output for %q", description, line))
	}
	return resp.Output, resp.Err
}
