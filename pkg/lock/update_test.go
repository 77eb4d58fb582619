package lock

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdejager/pixi/pkg/conda"
	"github.com/tdejager/pixi/pkg/manifest"
)

const manifestFixture = `[project]
name = "testproject"
channels = ["conda-forge"]
platforms = ["linux-64", "osx-arm64"]

[dependencies]
python = "3.12.*"

[environments.lint]
platforms = ["linux-64"]
`

func testManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(manifestFixture))
	require.NoError(t, err)
	return m
}

type fakeSolver struct {
	solved []string
	err    error
}

func (s *fakeSolver) Solve(_ context.Context, _ *manifest.Manifest, environment string, platform conda.Platform) ([]Package, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.solved = append(s.solved, fmt.Sprintf("%s/%s", environment, platform))
	return []Package{
		NewCondaPackage(&CondaPackage{
			Name:    "python",
			Version: "3.12.1",
			URL:     fmt.Sprintf("https://conda.anaconda.org/conda-forge/%s/python-3.12.1-h0_0.conda", platform),
			MD5:     make([]byte, 16),
		}),
	}, nil
}

type fakeInstaller struct {
	installed []string
}

func (i *fakeInstaller) Install(_ context.Context, _ *LockFile, environment string, platform conda.Platform) error {
	i.installed = append(i.installed, fmt.Sprintf("%s/%s", environment, platform))
	return nil
}

func TestUpdateResolvesMissingLock(t *testing.T) {
	m := testManifest(t)
	lockPath := filepath.Join(t.TempDir(), FileName)
	solver := &fakeSolver{}
	installer := &fakeInstaller{}

	lf, err := Update(context.Background(), m, UpdateOptions{
		LockPath:  lockPath,
		Solver:    solver,
		Installer: installer,
	})
	require.NoError(t, err)

	// Every combination the manifest declares got resolved: the default
	// environment on both project platforms, lint only on its own.
	assert.Equal(t, []string{
		"default/linux-64",
		"default/osx-arm64",
		"lint/linux-64",
	}, solver.solved)

	assert.Equal(t, m.Digest(), lf.ManifestDigest())
	assert.True(t, Satisfies(lf, m))

	// The lock was persisted and installation happened once.
	onDisk, err := Read(lockPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "lint"}, onDisk.EnvironmentNames())
	require.Len(t, installer.installed, 1)
	assert.Contains(t, installer.installed[0], manifest.DefaultEnvironmentName+"/")
}

func TestUpdateTrustsFreshLock(t *testing.T) {
	m := testManifest(t)
	lockPath := filepath.Join(t.TempDir(), FileName)

	_, err := Update(context.Background(), m, UpdateOptions{
		LockPath:  lockPath,
		Solver:    &fakeSolver{},
		NoInstall: true,
	})
	require.NoError(t, err)

	// Second run: a solver that fails if consulted proves the fresh lock is
	// trusted.
	lf, err := Update(context.Background(), m, UpdateOptions{
		LockPath:  lockPath,
		Solver:    &fakeSolver{err: fmt.Errorf("solver must not run")},
		NoInstall: true,
	})
	require.NoError(t, err)
	assert.True(t, Satisfies(lf, m))
}

func TestUpdateStaleLock(t *testing.T) {
	m := testManifest(t)
	dir := t.TempDir()
	lockPath := filepath.Join(dir, FileName)

	// A lock resolved from different manifest content is stale.
	stale := NewLockFile("0000000000000000")
	stale.AddEnvironment(manifest.DefaultEnvironmentName).AddPlatform(conda.Linux64)
	require.NoError(t, stale.Write(lockPath))

	t.Run("locked fails", func(t *testing.T) {
		_, err := Update(context.Background(), m, UpdateOptions{
			LockPath: lockPath,
			Usage:    UsageLocked,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not up-to-date")
	})

	t.Run("default without a solver fails", func(t *testing.T) {
		_, err := Update(context.Background(), m, UpdateOptions{
			LockPath: lockPath,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no solver")
	})

	t.Run("default re-resolves", func(t *testing.T) {
		solver := &fakeSolver{}
		lf, err := Update(context.Background(), m, UpdateOptions{
			LockPath:  lockPath,
			Solver:    solver,
			NoInstall: true,
		})
		require.NoError(t, err)
		assert.Len(t, solver.solved, 3)
		assert.True(t, Satisfies(lf, m))
	})

	t.Run("frozen trusts the stale lock", func(t *testing.T) {
		// Recreate the stale lock; the previous subtest rewrote it.
		require.NoError(t, stale.Write(lockPath))

		lf, err := Update(context.Background(), m, UpdateOptions{
			LockPath: lockPath,
			Usage:    UsageFrozen,
		})
		require.NoError(t, err)
		assert.Equal(t, "0000000000000000", lf.ManifestDigest())
	})
}

func TestUpdateFrozenRequiresLock(t *testing.T) {
	m := testManifest(t)

	_, err := Update(context.Background(), m, UpdateOptions{
		LockPath: filepath.Join(t.TempDir(), FileName),
		Usage:    UsageFrozen,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no lock file")
}

func TestUpdateSurfacesSolverError(t *testing.T) {
	m := testManifest(t)

	_, err := Update(context.Background(), m, UpdateOptions{
		LockPath: filepath.Join(t.TempDir(), FileName),
		Solver:   &fakeSolver{err: fmt.Errorf("channel unavailable")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel unavailable")
}
