package lock

import (
	"fmt"

	"github.com/tdejager/pixi/pkg/conda"
	"github.com/tdejager/pixi/pkg/pypi"
)

// FileName is the name of the lock file next to the project manifest.
const FileName = "pixi.lock"

// FileVersion is the current schema version of the lock file on disk.
const FileVersion = 1

// CondaPackage is one resolved binary-ecosystem package. It carries the
// direct runtime dependency entries the solver recorded for it, which is what
// makes dependency-ordered export possible.
type CondaPackage struct {
	Name    string
	Version string
	Build   string
	URL     string

	// MD5 and SHA256 are raw digest bytes; either may be absent if the
	// channel did not publish one.
	MD5    []byte
	SHA256 []byte

	// Depends holds the package's direct runtime dependencies as match-spec
	// strings, e.g. "libzlib >=1.2.13,<2.0a0".
	Depends []string
}

// PypiPackage is one resolved wheel-ecosystem package.
type PypiPackage struct {
	Name    pypi.PackageName
	Version string
	URL     string
	SHA256  []byte
}

// Package is a resolved package from exactly one of the two ecosystems.
// Exactly one of Conda and Pypi is non-nil; the variant is decided when the
// lock file is parsed and never re-inspected.
type Package struct {
	Conda *CondaPackage
	Pypi  *PypiPackage
}

// NewCondaPackage wraps a binary-ecosystem package.
func NewCondaPackage(p *CondaPackage) Package {
	return Package{Conda: p}
}

// NewPypiPackage wraps a wheel-ecosystem package.
func NewPypiPackage(p *PypiPackage) Package {
	return Package{Pypi: p}
}

func (p Package) validate() error {
	switch {
	case p.Conda == nil && p.Pypi == nil:
		return fmt.Errorf("package is neither conda nor pypi")
	case p.Conda != nil && p.Pypi != nil:
		return fmt.Errorf("package %q is both conda and pypi", p.Conda.Name)
	}
	return nil
}

// Environment holds the resolved packages of one named environment, per
// platform. Platform order and per-platform package order are the order the
// solver produced, which the lock file preserves.
type Environment struct {
	platforms []conda.Platform
	packages  map[conda.Platform][]Package
}

// NewEnvironment returns an empty environment. An environment with zero
// platforms is valid; it simply exports nothing.
func NewEnvironment() *Environment {
	return &Environment{packages: make(map[conda.Platform][]Package)}
}

// AddPlatform declares a platform for the environment, with an empty package
// list until packages are added. Declaring a platform twice is a no-op.
func (e *Environment) AddPlatform(platform conda.Platform) {
	if _, ok := e.packages[platform]; ok {
		return
	}
	e.platforms = append(e.platforms, platform)
	e.packages[platform] = []Package{}
}

// AddPackage appends a resolved package to the platform's list, declaring the
// platform if needed.
func (e *Environment) AddPackage(platform conda.Platform, pkg Package) error {
	if err := pkg.validate(); err != nil {
		return err
	}
	e.AddPlatform(platform)
	e.packages[platform] = append(e.packages[platform], pkg)
	return nil
}

// Platforms returns the platforms the environment was resolved for, in lock
// order.
func (e *Environment) Platforms() []conda.Platform {
	platforms := make([]conda.Platform, len(e.platforms))
	copy(platforms, e.platforms)
	return platforms
}

// HasPlatform reports whether the environment was resolved for the platform.
func (e *Environment) HasPlatform(platform conda.Platform) bool {
	_, ok := e.packages[platform]
	return ok
}

// Packages returns the resolved packages for one platform, in lock order.
func (e *Environment) Packages(platform conda.Platform) ([]Package, bool) {
	pkgs, ok := e.packages[platform]
	if !ok {
		return nil, false
	}
	out := make([]Package, len(pkgs))
	copy(out, pkgs)
	return out, true
}

// LockFile is the resolved record of which exact package versions satisfy the
// project manifest, per environment and platform. Once produced it is treated
// as read-only.
type LockFile struct {
	names          []string
	environments   map[string]*Environment
	manifestDigest string
}

// NewLockFile returns an empty lock tied to the given manifest content
// digest.
func NewLockFile(manifestDigest string) *LockFile {
	return &LockFile{
		environments:   make(map[string]*Environment),
		manifestDigest: manifestDigest,
	}
}

// ManifestDigest returns the digest of the manifest this lock was resolved
// from, or "" if the lock predates digest tracking.
func (l *LockFile) ManifestDigest() string {
	return l.manifestDigest
}

// AddEnvironment declares an environment, returning the existing one if the
// name is already present.
func (l *LockFile) AddEnvironment(name string) *Environment {
	if env, ok := l.environments[name]; ok {
		return env
	}
	env := NewEnvironment()
	l.names = append(l.names, name)
	l.environments[name] = env
	return env
}

// Environment looks up an environment by name.
func (l *LockFile) Environment(name string) (*Environment, bool) {
	env, ok := l.environments[name]
	return env, ok
}

// EnvironmentNames returns all environment names in lock order.
func (l *LockFile) EnvironmentNames() []string {
	names := make([]string, len(l.names))
	copy(names, l.names)
	return names
}
