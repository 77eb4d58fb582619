package lock

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"

	"github.com/tdejager/pixi/pkg/conda"
	"github.com/tdejager/pixi/pkg/manifest"
)

// Usage is the policy for how much to trust an existing lock file.
type Usage int

const (
	// UsageDefault re-resolves when the lock is missing or stale.
	UsageDefault Usage = iota
	// UsageLocked fails when the lock is missing or stale.
	UsageLocked
	// UsageFrozen uses the lock as-is, without checking staleness. A missing
	// lock is still an error: there is nothing to freeze to.
	UsageFrozen
)

// Solver resolves one (environment, platform) combination of the manifest
// into a concrete package list. The actual constraint solving lives outside
// this module.
type Solver interface {
	Solve(ctx context.Context, m *manifest.Manifest, environment string, platform conda.Platform) ([]Package, error)
}

// Installer materializes one environment of a lock into a usable filesystem
// prefix.
type Installer interface {
	Install(ctx context.Context, lf *LockFile, environment string, platform conda.Platform) error
}

// UpdateOptions configures Update.
type UpdateOptions struct {
	// LockPath is the location of the persisted lock file.
	LockPath string

	Usage     Usage
	NoInstall bool

	// Solver and Installer are the external collaborators. A nil Solver
	// turns a stale lock under UsageDefault into an error instead of a
	// re-resolution; a nil Installer skips installation.
	Solver    Solver
	Installer Installer
}

// Update produces a lock file that is valid for the manifest, re-resolving
// and rewriting the persisted lock when the usage policy allows it. Solver
// and installer errors surface to the caller; the lock file on disk is only
// ever replaced whole.
func Update(ctx context.Context, m *manifest.Manifest, opts UpdateOptions) (*LockFile, error) {
	log := clog.FromContext(ctx)

	lf, err := Read(opts.LockPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if opts.Usage == UsageFrozen {
		if lf == nil {
			return nil, fmt.Errorf("no lock file found at %s (--frozen requires an existing lock file)", opts.LockPath)
		}
		return finish(ctx, lf, opts)
	}

	stale := lf == nil || !Satisfies(lf, m)
	if !stale {
		return finish(ctx, lf, opts)
	}

	if opts.Usage == UsageLocked {
		return nil, fmt.Errorf("lock file %s is not up-to-date with the manifest (remove --locked to update it)", opts.LockPath)
	}
	if opts.Solver == nil {
		return nil, fmt.Errorf("lock file %s is not up-to-date with the manifest and no solver is configured", opts.LockPath)
	}

	log.Infof("resolving %d environment/platform combinations", len(m.Combinations()))
	lf, err = resolve(ctx, m, opts.Solver)
	if err != nil {
		return nil, err
	}

	if err := lf.Write(opts.LockPath); err != nil {
		return nil, err
	}

	return finish(ctx, lf, opts)
}

func finish(ctx context.Context, lf *LockFile, opts UpdateOptions) (*LockFile, error) {
	if opts.NoInstall || opts.Installer == nil {
		return lf, nil
	}

	platform := conda.CurrentPlatform()
	if err := opts.Installer.Install(ctx, lf, manifest.DefaultEnvironmentName, platform); err != nil {
		return nil, fmt.Errorf("installing environment %s for %s: %w", manifest.DefaultEnvironmentName, platform, err)
	}
	return lf, nil
}

// resolve asks the solver for every combination the manifest declares and
// assembles a fresh lock.
func resolve(ctx context.Context, m *manifest.Manifest, solver Solver) (*LockFile, error) {
	lf := NewLockFile(m.Digest())

	for _, combo := range m.Combinations() {
		packages, err := solver.Solve(ctx, m, combo.Environment, combo.Platform)
		if err != nil {
			return nil, fmt.Errorf("resolving environment %s for %s: %w", combo.Environment, combo.Platform, err)
		}

		env := lf.AddEnvironment(combo.Environment)
		env.AddPlatform(combo.Platform)
		for _, pkg := range packages {
			if err := env.AddPackage(combo.Platform, pkg); err != nil {
				return nil, fmt.Errorf("environment %s platform %s: %w", combo.Environment, combo.Platform, err)
			}
		}
	}

	return lf, nil
}

// Satisfies reports whether the lock is still valid for the manifest: its
// recorded manifest digest matches and every (environment, platform)
// combination the manifest declares is present.
func Satisfies(lf *LockFile, m *manifest.Manifest) bool {
	if lf.ManifestDigest() != m.Digest() {
		return false
	}

	for _, combo := range m.Combinations() {
		env, ok := lf.Environment(combo.Environment)
		if !ok || !env.HasPlatform(combo.Platform) {
			return false
		}
	}
	return true
}
