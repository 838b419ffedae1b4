package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pirakansa/lbkit/internal/build"
	"github.com/pirakansa/lbkit/internal/cli/shared"
	"github.com/pirakansa/lbkit/internal/lb"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/internal/runner"
	"github.com/pirakansa/lbkit/internal/writer"
	"github.com/pirakansa/lbkit/pkg/target"
)

type testEnv struct {
	dir         string
	recipePath  string
	bootloaders string
	recorder    *runner.Recorder
}

func newTestEnv(t *testing.T, recipe string) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	env := &testEnv{
		dir:         dir,
		recipePath:  filepath.Join(dir, "lbkit.yaml"),
		bootloaders: filepath.Join(dir, "bootloaders"),
		recorder:    &runner.Recorder{},
	}
	if err := os.MkdirAll(filepath.Join(env.bootloaders, "grub-pc"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if recipe != "" {
		if err := os.WriteFile(env.recipePath, []byte(recipe), 0o644); err != nil {
			t.Fatalf("write recipe: %v", err)
		}
	}
	return env
}

func (e *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx := newAppContext()
	ctx.newRunner = func(*logs.Logger) runner.Runner { return e.recorder }
	cmd := newRootCmd(ctx, "test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{
		"--recipe", e.recipePath,
		"--bootloader-dir", e.bootloaders,
		"--log-level", "error",
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMapExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{newExitCodeError(shared.ExitConfigError, errors.New("x")), shared.ExitConfigError},
		{&build.StageError{Stage: build.StageBuild, Err: &runner.ProcessError{ExitCode: 1}}, shared.ExitProcessFailed},
		{fmt.Errorf("write: %w", &writer.UnrecognizedTargetError{}), shared.ExitTargetError},
		{&writer.MissingSourceError{Err: os.ErrNotExist}, shared.ExitTargetError},
		{fmt.Errorf("write: %w", &writer.InvalidTargetError{Target: target.AptPreference{}, Err: errors.New("bad")}), shared.ExitConfigError},
		{errors.New("other"), shared.ExitError},
	}
	for _, tc := range cases {
		if got := mapExitCode(tc.err); got != tc.want {
			t.Fatalf("mapExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestBuildCommandSkipBuild(t *testing.T) {
	env := newTestEnv(t, "packages: [{code: base, packages: [vim]}]\n")
	buildDir := filepath.Join(env.dir, "iso")

	if _, err := env.execute(t, "build", "--build-dir", buildDir, "--skip-build"); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := []runner.Call{{Argv: []string{lb.DefaultLiveBuildBinary, "config"}, Dir: buildDir}}
	if diff := cmp.Diff(want, env.recorder.Recorded()); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
	list, err := os.ReadFile(filepath.Join(buildDir, lb.PackageListDir, "base.list.chroot"))
	if err != nil || string(list) != "vim\n" {
		t.Fatalf("unexpected package list %q err=%v", list, err)
	}
}

func TestBuildCommandUsesRecipeSettings(t *testing.T) {
	env := newTestEnv(t, "")
	buildDir := filepath.Join(env.dir, "from-recipe")
	recipe := fmt.Sprintf("image: {name: demo, distribution: bookworm}\nbuild: {dir: %s, skip: true}\n", buildDir)
	if err := os.WriteFile(env.recipePath, []byte(recipe), 0o644); err != nil {
		t.Fatalf("write recipe: %v", err)
	}

	if _, err := env.execute(t, "--lb-command", "sudo lb", "build"); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := []runner.Call{{Argv: []string{"sudo", "lb", "config"}, Dir: buildDir}}
	if diff := cmp.Diff(want, env.recorder.Recorded()); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
	script, err := os.ReadFile(filepath.Join(buildDir, lb.AutoScriptDir, "config"))
	if err != nil {
		t.Fatalf("read auto/config: %v", err)
	}
	if !strings.Contains(string(script), `--distribution "bookworm"`) || !strings.Contains(string(script), `--image-name "demo"`) {
		t.Fatalf("unexpected auto/config:\n%s", script)
	}
}

func TestBuildCommandReturnsConfigErrorForMissingRecipe(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.execute(t, "build")
	var exitErr *exitCodeError
	if !errors.As(err, &exitErr) || exitErr.code != shared.ExitConfigError {
		t.Fatalf("expected ExitConfigError, err=%v", err)
	}
}

func TestBuildCommandProcessFailure(t *testing.T) {
	env := newTestEnv(t, "packages: []\n")
	env.recorder.Fail = func(c runner.Call) error {
		return &runner.ProcessError{Argv: c.Argv, ExitCode: 1}
	}
	_, err := env.execute(t, "build", "--build-dir", filepath.Join(env.dir, "iso"))
	if got := mapExitCode(err); got != shared.ExitProcessFailed {
		t.Fatalf("expected ExitProcessFailed, got %d (%v)", got, err)
	}
}

func TestBuildCommandMissingHookSource(t *testing.T) {
	env := newTestEnv(t, "hooks: [{name: motd, path: hooks/missing.sh}]\n")
	_, err := env.execute(t, "build", "--build-dir", filepath.Join(env.dir, "iso"), "--skip-build")
	if got := mapExitCode(err); got != shared.ExitTargetError {
		t.Fatalf("expected ExitTargetError, got %d (%v)", got, err)
	}
}

func TestPlanCommandDoesNotTouchBuildDir(t *testing.T) {
	env := newTestEnv(t, `packages: [{code: base, packages: [vim]}]
hooks:
  - {name: motd, path: hooks/motd.sh}
  - {name: live, path: hooks/live.sh, live_only: true}
`)
	buildDir := filepath.Join(env.dir, "iso")

	out, err := env.execute(t, "plan", "--build-dir", buildDir)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	for _, want := range []string{
		"build dir: " + buildDir,
		"upstream_packages  1",
		"hook_script        2",
		"hook: " + filepath.Join(lb.NormalHooksDir, "0001-motd.hook.chroot"),
		"hook: " + filepath.Join(lb.LiveHooksDir, "0001-live.hook.chroot"),
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(buildDir); !os.IsNotExist(err) {
		t.Fatalf("plan should not create the build dir, got %v", err)
	}
	if len(env.recorder.Recorded()) != 0 {
		t.Fatalf("plan should not run commands")
	}
}

func TestCleanCommand(t *testing.T) {
	env := newTestEnv(t, "")
	buildDir := filepath.Join(env.dir, "iso")
	if _, err := env.execute(t, "clean", "--build-dir", buildDir); err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	want := []runner.Call{{Argv: []string{lb.DefaultLiveBuildBinary, "clean"}, Dir: buildDir}}
	if diff := cmp.Diff(want, env.recorder.Recorded()); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
}

func TestCleanCommandDefaultsWithoutRecipe(t *testing.T) {
	env := newTestEnv(t, "")
	if _, err := env.execute(t, "clean"); err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if got := env.recorder.Recorded()[0].Dir; got != lb.DefaultBuildDir {
		t.Fatalf("unexpected build dir %s", got)
	}
}

func TestInitCommandCreatesRecipeAndFailsOnSecondRun(t *testing.T) {
	env := newTestEnv(t, "")
	if _, err := env.execute(t, "init"); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	b, err := os.ReadFile(env.recipePath)
	if err != nil {
		t.Fatalf("lbkit.yaml missing: %v", err)
	}
	if !containsAll(string(b), []string{"version: 1", "packages:", "distribution: trixie"}) {
		t.Fatalf("unexpected template content:\n%s", b)
	}

	if _, err := env.execute(t, "init"); err == nil {
		t.Fatalf("expected second init to fail when the recipe exists")
	}
}

func TestInitTemplateIsValid(t *testing.T) {
	env := newTestEnv(t, recipeTemplate())
	if _, err := env.execute(t, "plan"); err != nil {
		t.Fatalf("plan on the starter recipe failed: %v", err)
	}
}

func TestInitForceKeepsBackup(t *testing.T) {
	env := newTestEnv(t, "version: 1\n# mine\n")
	out, err := env.execute(t, "init", "--force")
	if err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	matches, err := filepath.Glob(env.recipePath + ".*.bak")
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one backup, got %v err=%v", matches, err)
	}
	b, err := os.ReadFile(matches[0])
	if err != nil || string(b) != "version: 1\n# mine\n" {
		t.Fatalf("unexpected backup content %q err=%v", b, err)
	}
	if !strings.Contains(out, "backup:") {
		t.Fatalf("expected backup path in output, got %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out) != "test" {
		t.Fatalf("unexpected version output %q", out)
	}
}

func containsAll(v string, items []string) bool {
	for _, item := range items {
		if !strings.Contains(v, item) {
			return false
		}
	}
	return true
}
