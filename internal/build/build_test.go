package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pirakansa/lbkit/internal/lb"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/internal/runner"
	"github.com/pirakansa/lbkit/internal/writer"
	"github.com/pirakansa/lbkit/pkg/target"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	bootloaders := t.TempDir()
	if err := os.MkdirAll(filepath.Join(bootloaders, "grub-pc"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(bootloaders, "grub-pc", "grub.cfg"), []byte("set timeout=5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	opts := DefaultOptions()
	opts.BuildDir = filepath.Join(t.TempDir(), "iso")
	opts.BootloaderDir = bootloaders
	return opts
}

func TestImageSkipBuild(t *testing.T) {
	opts := testOptions(t)
	opts.SkipBuild = true
	rec := &runner.Recorder{}

	targets := []target.Target{target.UpstreamPackages{Code: "base", Packages: []string{"vim"}}}
	if err := Image(context.Background(), logs.Discard(), rec, targets, opts); err != nil {
		t.Fatalf("Image failed: %v", err)
	}

	want := []runner.Call{{Argv: []string{lb.DefaultLiveBuildBinary, "config"}, Dir: opts.BuildDir}}
	if diff := cmp.Diff(want, rec.Recorded()); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
	list, err := os.ReadFile(filepath.Join(opts.BuildDir, lb.PackageListDir, "base.list.chroot"))
	if err != nil {
		t.Fatalf("package list missing: %v", err)
	}
	if string(list) != "vim\n" {
		t.Fatalf("unexpected package list %q", list)
	}
	if _, err := os.Stat(filepath.Join(opts.BuildDir, lb.BootloaderDir, "grub-pc", "grub.cfg")); err != nil {
		t.Fatalf("bootloaders not copied: %v", err)
	}
	for _, script := range lb.AutoScripts {
		info, err := os.Stat(filepath.Join(opts.BuildDir, lb.AutoScriptDir, string(script)))
		if err != nil {
			t.Fatalf("auto script %s missing: %v", script, err)
		}
		if info.Mode().Perm()&0o100 == 0 {
			t.Fatalf("auto script %s is not executable", script)
		}
	}
}

func TestBuildRunsConfigThenBuild(t *testing.T) {
	opts := testOptions(t)
	rec := &runner.Recorder{}
	b := NewBuilder(logs.Discard(), rec, []string{"sudo", "lb"}, nil)
	if err := b.Build(context.Background(), nil, opts); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []runner.Call{
		{Argv: []string{"sudo", "lb", "config"}, Dir: opts.BuildDir},
		{Argv: []string{"sudo", "lb", "build"}, Dir: opts.BuildDir},
	}
	if diff := cmp.Diff(want, rec.Recorded()); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
}

func TestFreshBuildRemovesStaleFiles(t *testing.T) {
	opts := testOptions(t)
	opts.SkipBuild = true
	stale := filepath.Join(opts.BuildDir, "stale")
	if err := os.MkdirAll(opts.BuildDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	opts.FreshBuild = false
	if err := Image(context.Background(), logs.Discard(), &runner.Recorder{}, nil, opts); err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("stale file should be kept without a fresh build: %v", err)
	}

	opts.FreshBuild = true
	if err := Image(context.Background(), logs.Discard(), &runner.Recorder{}, nil, opts); err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale file should be removed, got %v", err)
	}
}

func TestBuildStageErrors(t *testing.T) {
	t.Run("config failure", func(t *testing.T) {
		opts := testOptions(t)
		rec := &runner.Recorder{Fail: func(runner.Call) error {
			return &runner.ProcessError{Argv: []string{"lb", "config"}, ExitCode: 1}
		}}
		err := Image(context.Background(), logs.Discard(), rec, nil, opts)
		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != StageConfig {
			t.Fatalf("expected lb_config stage error, got %v", err)
		}
		var procErr *runner.ProcessError
		if !errors.As(err, &procErr) {
			t.Fatalf("expected ProcessError in chain, got %v", err)
		}
	})

	t.Run("missing bootloaders", func(t *testing.T) {
		opts := testOptions(t)
		opts.BootloaderDir = filepath.Join(t.TempDir(), "missing")
		err := Image(context.Background(), logs.Discard(), &runner.Recorder{}, nil, opts)
		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != StageBuiltinTargets {
			t.Fatalf("expected attach_builtin_targets stage error, got %v", err)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		opts := testOptions(t)
		rec := &runner.Recorder{}
		err := Image(context.Background(), logs.Discard(), rec, []target.Target{nil}, opts)
		var unknown *writer.UnrecognizedTargetError
		if !errors.As(err, &unknown) {
			t.Fatalf("expected UnrecognizedTargetError, got %v", err)
		}
		if len(rec.Recorded()) != 1 {
			t.Fatalf("lb build should not run, calls: %v", rec.Recorded())
		}
	})
}

func TestBuildDoesNotMutateTargets(t *testing.T) {
	opts := testOptions(t)
	opts.SkipBuild = true
	targets := make([]target.Target, 1, 4)
	targets[0] = target.UpstreamPackages{Code: "base"}

	if err := Image(context.Background(), logs.Discard(), &runner.Recorder{}, targets, opts); err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if len(targets) != 1 || targets[:2][1] != nil {
		t.Fatalf("caller targets were modified")
	}
}

func TestBuildWithCustomAutoScript(t *testing.T) {
	opts := testOptions(t)
	opts.SkipBuild = true
	tmpl := filepath.Join(t.TempDir(), "config.tmpl")
	if err := os.WriteFile(tmpl, []byte("#!/bin/sh\nlb config noauto --distribution {{ .distribution }} --debian-installer live\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	opts.AutoScriptTemplates = map[lb.AutoScript]string{lb.AutoScriptConfig: tmpl}

	if err := Image(context.Background(), logs.Discard(), &runner.Recorder{}, nil, opts); err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(opts.BuildDir, lb.AutoScriptDir, "config"))
	if err != nil {
		t.Fatalf("read auto/config: %v", err)
	}
	if string(b) != "#!/bin/sh\nlb config noauto --distribution trixie --debian-installer live\n" {
		t.Fatalf("unexpected auto/config:\n%s", b)
	}
}
