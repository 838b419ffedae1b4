package runner

import (
	"context"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Argv []string
	Dir  string
}

// Recorder is a Runner that records calls instead of executing them. Fail,
// when set, decides the error returned for a call.
type Recorder struct {
	mu    sync.Mutex
	Calls []Call
	Fail  func(Call) error
}

func (r *Recorder) Run(_ context.Context, argv []string, dir string) error {
	call := Call{Argv: append([]string(nil), argv...), Dir: dir}
	r.mu.Lock()
	r.Calls = append(r.Calls, call)
	r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail(call)
	}
	return nil
}

// Recorded returns a copy of the calls seen so far.
func (r *Recorder) Recorded() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.Calls...)
}
