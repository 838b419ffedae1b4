package writer

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/pkg/target"
)

type unknownTarget struct{}

func (unknownTarget) Kind() target.Kind { return "unknown" }

// foreignHook claims a registered kind without being a target.HookScript.
type foreignHook struct{}

func (foreignHook) Kind() target.Kind { return target.KindHookScript }

type spy struct {
	calls [][]target.Target
}

func (s *spy) Handle(_ context.Context, targets []target.Target) error {
	s.calls = append(s.calls, targets)
	return nil
}

func newSpyDispatcher() (*Dispatcher, map[target.Kind]*spy) {
	d := NewDispatcher(logs.Discard())
	spies := map[target.Kind]*spy{}
	for _, kind := range []target.Kind{
		target.KindUpstreamPackages,
		target.KindCustomDeb,
		target.KindHookScript,
		target.KindStaticFile,
		target.KindAptPreference,
		target.KindDirectConfig,
	} {
		s := &spy{}
		spies[kind] = s
		d.Register(kind, s)
	}
	return d, spies
}

func TestDispatchGroupsByKindInArrivalOrder(t *testing.T) {
	d, spies := newSpyDispatcher()
	a := target.UpstreamPackages{Code: "a", Packages: []string{"vim"}}
	b := target.AptPreference{Package: "vim", Pin: "release n=trixie", PinPriority: 900, Type: target.BuildTime}
	c := target.UpstreamPackages{Code: "c", Packages: []string{"curl"}}

	if err := d.Dispatch(context.Background(), []target.Target{a, b, c}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(spies[target.KindUpstreamPackages].calls) != 1 {
		t.Fatalf("expected one packages call, got %d", len(spies[target.KindUpstreamPackages].calls))
	}
	if diff := cmp.Diff([]target.Target{a, c}, spies[target.KindUpstreamPackages].calls[0]); diff != "" {
		t.Fatalf("unexpected packages group (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]target.Target{b}, spies[target.KindAptPreference].calls[0]); diff != "" {
		t.Fatalf("unexpected preferences group (-want +got):\n%s", diff)
	}
	// Handlers without targets still run once with an empty group.
	if got := spies[target.KindHookScript].calls; len(got) != 1 || len(got[0]) != 0 {
		t.Fatalf("expected one empty hook call, got %v", got)
	}
}

func TestDispatchFlattensNestedGroups(t *testing.T) {
	a := target.UpstreamPackages{Code: "a"}
	b := target.HookScript{Name: "b", Script: target.Path("/b")}
	c := target.UpstreamPackages{Code: "c"}
	d := target.HookScript{Name: "d", Script: target.Path("/d")}

	nested, nestedSpies := newSpyDispatcher()
	if err := nested.Dispatch(context.Background(), []target.Target{
		a, target.Group{b, target.Group{c}}, target.Group{}, d,
	}); err != nil {
		t.Fatalf("Dispatch nested failed: %v", err)
	}
	flat, flatSpies := newSpyDispatcher()
	if err := flat.Dispatch(context.Background(), []target.Target{a, b, c, d}); err != nil {
		t.Fatalf("Dispatch flat failed: %v", err)
	}
	for kind, s := range flatSpies {
		if diff := cmp.Diff(s.calls, nestedSpies[kind].calls); diff != "" {
			t.Fatalf("%s calls differ (-flat +nested):\n%s", kind, diff)
		}
	}
}

func TestDispatchRejectsUnknownTargetBeforeWriting(t *testing.T) {
	for name, bad := range map[string]target.Target{
		"unknown kind":      unknownTarget{},
		"nil":               nil,
		"hook pointer":      &target.HookScript{Name: "motd", Script: target.Path("/motd")},
		"foreign hook kind": foreignHook{},
	} {
		t.Run(name, func(t *testing.T) {
			d, spies := newSpyDispatcher()
			targets := []target.Target{
				target.UpstreamPackages{Code: "a"},
				target.Group{target.StaticFile{Path: "/etc/motd"}, target.Group{bad}},
			}
			err := d.Dispatch(context.Background(), targets)
			var unknown *UnrecognizedTargetError
			if !errors.As(err, &unknown) {
				t.Fatalf("expected UnrecognizedTargetError, got %v", err)
			}
			if unknown.Index != 2 {
				t.Fatalf("expected index 2, got %d", unknown.Index)
			}
			for kind, s := range spies {
				if len(s.calls) != 0 {
					t.Fatalf("%s handler ran %d times", kind, len(s.calls))
				}
			}
		})
	}
}

func TestDispatchRejectsInvalidTargetBeforeWriting(t *testing.T) {
	for name, bad := range map[string]target.Target{
		"preference type":  target.AptPreference{Package: "vim", Pin: "release n=trixie", Type: "bogus"},
		"package priority": target.UpstreamPackages{Code: "b", Priority: "urgent"},
	} {
		t.Run(name, func(t *testing.T) {
			d, spies := newSpyDispatcher()
			err := d.Dispatch(context.Background(), []target.Target{target.UpstreamPackages{Code: "a"}, bad})
			var invalid *InvalidTargetError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidTargetError, got %v", err)
			}
			if invalid.Index != 1 {
				t.Fatalf("expected index 1, got %d", invalid.Index)
			}
			for kind, s := range spies {
				if len(s.calls) != 0 {
					t.Fatalf("%s handler ran %d times", kind, len(s.calls))
				}
			}
		})
	}
}

func TestBuildDispatcherWritesNothingForBadTargets(t *testing.T) {
	for name, bad := range map[string]target.Target{
		"hook pointer":    &target.HookScript{Name: "motd", Script: target.Path("/motd")},
		"foreign hook":    foreignHook{},
		"preference type": target.AptPreference{Package: "vim", Pin: "release n=trixie", Type: "bogus"},
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			d := NewBuildDispatcher(dir, nil, nil, logs.Discard())
			err := d.Dispatch(context.Background(), []target.Target{target.UpstreamPackages{Code: "base", Packages: []string{"vim"}}, bad})
			if err == nil {
				t.Fatalf("expected error")
			}
			entries, readErr := os.ReadDir(dir)
			if readErr != nil {
				t.Fatalf("read build dir: %v", readErr)
			}
			if len(entries) != 0 {
				t.Fatalf("build dir written before failure: %v", entries)
			}
		})
	}
}

func TestDispatchStopsAtFailingHandler(t *testing.T) {
	d := NewDispatcher(logs.Discard())
	boom := errors.New("boom")
	later := &spy{}
	d.Register(target.KindUpstreamPackages, HandlerFunc(func(context.Context, []target.Target) error {
		return boom
	}))
	d.Register(target.KindHookScript, later)

	err := d.Dispatch(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if len(later.calls) != 0 {
		t.Fatalf("later handler should not run")
	}
}

func TestRegisterKeepsFirstPosition(t *testing.T) {
	d := NewDispatcher(logs.Discard())
	d.Register(target.KindHookScript, &spy{})
	d.Register(target.KindUpstreamPackages, &spy{})
	d.Register(target.KindHookScript, &spy{})

	want := []target.Kind{target.KindHookScript, target.KindUpstreamPackages}
	if diff := cmp.Diff(want, d.Kinds()); diff != "" {
		t.Fatalf("unexpected kinds (-want +got):\n%s", diff)
	}
}

func TestBuildDispatcherOrder(t *testing.T) {
	d := NewBuildDispatcher(t.TempDir(), nil, nil, logs.Discard())
	if diff := cmp.Diff(BuildKinds, d.Kinds()); diff != "" {
		t.Fatalf("unexpected kinds (-want +got):\n%s", diff)
	}
}
