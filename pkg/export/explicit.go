package export

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/tdejager/pixi/pkg/conda"
	"github.com/tdejager/pixi/pkg/lock"
)

// specHeader identifies the generating tool in every exported file.
const specHeader = "# Generated by `pixi project export`"

// ExplicitEntry is one pinned line of an explicit spec: a fully-qualified
// archive URL with the package's MD5 digest as the URL fragment.
type ExplicitEntry struct {
	URL string
}

// ExplicitSpec is a portable pinned installation manifest for one platform.
// Entry order is the actual installation order.
type ExplicitSpec struct {
	Platform conda.Platform
	Packages []ExplicitEntry
}

// BuildExplicitSpec converts an already-sorted package list into an explicit
// spec. Every package must carry an MD5 digest: the format's whole purpose is
// bit-reproducible pinning, so an unchecksummed entry is a construction
// error, never a degraded line.
func BuildExplicitSpec(platform conda.Platform, packages []*lock.CondaPackage) (*ExplicitSpec, error) {
	spec := &ExplicitSpec{Platform: platform}

	for _, pkg := range packages {
		if len(pkg.MD5) == 0 {
			return nil, fmt.Errorf("package %s does not contain an md5 hash", pkg.Name)
		}

		u, err := url.Parse(pkg.URL)
		if err != nil {
			return nil, fmt.Errorf("package %s has an invalid URL %q: %w", pkg.Name, pkg.URL, err)
		}
		u.Fragment = hex.EncodeToString(pkg.MD5)

		spec.Packages = append(spec.Packages, ExplicitEntry{URL: u.String()})
	}

	return spec, nil
}

// Render produces the file content: the generator header, the platform
// marker, the @EXPLICIT token, and one URL per line in installation order.
func (s *ExplicitSpec) Render() string {
	var b strings.Builder
	b.WriteString(specHeader + "\n")
	b.WriteString(fmt.Sprintf("# platform: %s\n", s.Platform))
	b.WriteString("@EXPLICIT\n")
	for _, entry := range s.Packages {
		b.WriteString(entry.URL + "\n")
	}
	return b.String()
}

// Options configures an export run.
type Options struct {
	// OutputDir receives the rendered spec files; it is created if absent.
	OutputDir string

	// Environments and Platforms filter the lock; empty means all.
	Environments []string
	Platforms    []conda.Platform

	// IgnorePypiErrors downgrades the presence of wheel-ecosystem packages
	// from a fatal error to a per-package warning.
	IgnorePypiErrors bool
}

// Export renders one explicit spec file per selected (environment, platform)
// pair into the output directory. Work-items are independent and run
// concurrently; the first fatal error cancels the remaining items.
func Export(ctx context.Context, lf *lock.LockFile, opts Options) error {
	items, err := SelectWorkItems(ctx, lf, opts.Environments, opts.Platforms)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", opts.OutputDir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			return exportOne(ctx, opts.OutputDir, item, opts.IgnorePypiErrors)
		})
	}
	return g.Wait()
}

// exportOne derives and writes a single work-item's spec file. Cancellation
// is honored before any work starts, never mid-sort: a partially sorted
// package list has no valid meaning.
func exportOne(ctx context.Context, outputDir string, item WorkItem, ignorePypiErrors bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := clog.FromContext(ctx)

	var condaPackages []*lock.CondaPackage
	for _, pkg := range item.Packages() {
		switch {
		case pkg.Conda != nil:
			condaPackages = append(condaPackages, pkg.Conda)
		case pkg.Pypi != nil:
			if !ignorePypiErrors {
				return fmt.Errorf("PyPI packages are not supported in a conda explicit spec. " +
					"Specify --ignore-pypi-errors to ignore this error and create a spec file " +
					"containing only the conda dependencies from the lock file")
			}
			log.Warnf("ignoring PyPI package %s since PyPI packages are not supported", pkg.Pypi.Name.Source())
		}
	}

	sorted, err := SortTopologically(condaPackages)
	if err != nil {
		return fmt.Errorf("environment %s platform %s: %w", item.Environment, item.Platform, err)
	}

	spec, err := BuildExplicitSpec(item.Platform, sorted)
	if err != nil {
		return fmt.Errorf("environment %s platform %s: %w", item.Environment, item.Platform, err)
	}

	// Nothing to pin means no file at all, rather than an empty artifact.
	if len(spec.Packages) == 0 {
		return nil
	}

	log.Infof("creating conda explicit spec for environment %s platform %s", item.Environment, item.Platform)

	target := filepath.Join(outputDir, SpecFileName(item.Environment, item.Platform))
	if err := writeFileAtomic(target, []byte(spec.Render())); err != nil {
		return fmt.Errorf("writing explicit spec %s: %w", target, err)
	}
	return nil
}

// SpecFileName is the deterministic file name for one work-item's spec.
func SpecFileName(environment string, platform conda.Platform) string {
	return fmt.Sprintf("%s_%s_conda_spec.txt", environment, platform)
}

// writeFileAtomic writes via a temporary file plus rename so that two
// overlapping exports of the same work-item can never interleave partial
// writes.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
