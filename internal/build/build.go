package build

import (
	"context"
	"fmt"

	"github.com/pirakansa/lbkit/internal/lb"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/internal/render"
	"github.com/pirakansa/lbkit/internal/runner"
	"github.com/pirakansa/lbkit/internal/writer"
	"github.com/pirakansa/lbkit/pkg/target"
)

// Stage is one step of an image build.
type Stage string

const (
	StageRemoveDir       Stage = "remove_dir"
	StageWriteAutoScript Stage = "write_autoscripts"
	StageConfig          Stage = "lb_config"
	StageBuiltinTargets  Stage = "attach_builtin_targets"
	StageWriteTargets    Stage = "write_targets"
	StageBuild           Stage = "lb_build"
)

// StageError wraps the error that stopped a build.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options controls a single build.
type Options struct {
	BuildDir     string
	FreshBuild   bool
	Distribution string
	ImageName    string
	SkipBuild    bool
	// BootloaderDir is the host directory holding bootloader templates.
	BootloaderDir string
	// AutoScriptTemplates replaces builtin auto scripts with template files.
	AutoScriptTemplates map[lb.AutoScript]string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BuildDir:      lb.DefaultBuildDir,
		FreshBuild:    true,
		Distribution:  lb.DefaultDistribution,
		ImageName:     lb.DefaultImageName,
		BootloaderDir: lb.DefaultBuiltinBootloaderDir,
	}
}

// Builder runs the build stages against one lb installation.
type Builder struct {
	Logger    *logs.Logger
	LiveBuild *lb.LiveBuild
	Runner    runner.Runner
	// DpkgName is the dpkg-name invocation used for custom debs.
	DpkgName []string
}

func NewBuilder(logger *logs.Logger, r runner.Runner, lbCommand, dpkgName []string) *Builder {
	return &Builder{
		Logger:    logger,
		LiveBuild: lb.New(lbCommand, r, logger),
		Runner:    r,
		DpkgName:  dpkgName,
	}
}

// Build populates opts.BuildDir from targets and runs lb. A failed stage
// leaves whatever was already written in place.
func (b *Builder) Build(ctx context.Context, targets []target.Target, opts Options) error {
	if opts.BuildDir == "" {
		return &StageError{Stage: StageRemoveDir, Err: fmt.Errorf("build dir is empty")}
	}
	log := b.Logger.With("build_dir", opts.BuildDir)

	if opts.FreshBuild {
		if err := lb.RemoveBuildDir(opts.BuildDir, log); err != nil {
			return &StageError{Stage: StageRemoveDir, Err: err}
		}
	}

	if err := b.writeAutoScripts(opts, log); err != nil {
		return &StageError{Stage: StageWriteAutoScript, Err: err}
	}

	if err := b.LiveBuild.Run(ctx, lb.OpConfig, opts.BuildDir); err != nil {
		return &StageError{Stage: StageConfig, Err: err}
	}

	bootloaders, err := lb.CopyBootloaders(opts.BootloaderDir)
	if err != nil {
		return &StageError{Stage: StageBuiltinTargets, Err: err}
	}
	all := make([]target.Target, 0, len(targets)+1)
	all = append(all, targets...)
	all = append(all, bootloaders)

	dispatcher := writer.NewBuildDispatcher(opts.BuildDir, b.DpkgName, b.Runner, log)
	if err := dispatcher.Dispatch(ctx, all); err != nil {
		return &StageError{Stage: StageWriteTargets, Err: err}
	}

	if opts.SkipBuild {
		log.Info("skipping lb build")
		return nil
	}
	if err := b.LiveBuild.Run(ctx, lb.OpBuild, opts.BuildDir); err != nil {
		return &StageError{Stage: StageBuild, Err: err}
	}
	log.Info("image build finished")
	return nil
}

func (b *Builder) writeAutoScripts(opts Options, log *logs.Logger) error {
	vars := render.Vars{
		"distribution": opts.Distribution,
		"image_name":   opts.ImageName,
	}
	for _, script := range lb.AutoScripts {
		var err error
		if tmpl, ok := opts.AutoScriptTemplates[script]; ok {
			_, err = lb.WriteCustomAutoScript(opts.BuildDir, script, tmpl, vars, log)
		} else {
			_, err = lb.WriteAutoScript(opts.BuildDir, script, vars, log)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Image builds with the default lb and dpkg-name commands.
func Image(ctx context.Context, logger *logs.Logger, r runner.Runner, targets []target.Target, opts Options) error {
	return NewBuilder(logger, r, nil, nil).Build(ctx, targets, opts)
}
