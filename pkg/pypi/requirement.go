package pypi

import (
	"errors"
	"fmt"

	"github.com/tdejager/pixi/pkg/git"
)

// RequirementKind tags the closed set of requirement shapes a manifest can
// declare for a wheel-ecosystem dependency.
type RequirementKind int

const (
	// KindVersion is a plain version specifier (possibly the wildcard).
	KindVersion RequirementKind = iota
	// KindGit points at a git repository, optionally pinned to a revision,
	// branch, or tag.
	KindGit
	// KindPath points at a local directory or archive.
	KindPath
)

// GitSource describes where in a git repository a requirement comes from. At
// most one of Rev, Branch, and Tag is set.
type GitSource struct {
	URL    string
	Rev    *git.Rev
	Branch string
	Tag    string
}

// Requirement is one wheel-ecosystem dependency as declared in the manifest.
// The shape is decided once at parse time from the manifest's syntax (a bare
// string is a version specifier, a table selects git or path) and never
// re-inspected afterwards.
type Requirement struct {
	Name    PackageName
	Extras  []string
	kind    RequirementKind
	version VersionOrStar
	git     *GitSource
	path    string
}

// NewVersionRequirement builds a plain version requirement.
func NewVersionRequirement(name PackageName, version VersionOrStar) Requirement {
	return Requirement{Name: name, kind: KindVersion, version: version}
}

// NewGitRequirement builds a requirement sourced from a git repository.
func NewGitRequirement(name PackageName, source GitSource) (Requirement, error) {
	if source.URL == "" {
		return Requirement{}, fmt.Errorf("git requirement %s is missing a repository URL", name)
	}

	set := 0
	if source.Rev != nil {
		set++
	}
	if source.Branch != "" {
		set++
	}
	if source.Tag != "" {
		set++
	}
	if set > 1 {
		return Requirement{}, errors.New("rev, branch, and tag are mutually exclusive")
	}

	return Requirement{Name: name, kind: KindGit, git: &source}, nil
}

// NewPathRequirement builds a requirement sourced from the local filesystem.
func NewPathRequirement(name PackageName, path string) (Requirement, error) {
	if path == "" {
		return Requirement{}, fmt.Errorf("path requirement %s is missing a path", name)
	}
	return Requirement{Name: name, kind: KindPath, path: path}, nil
}

// Kind reports which shape the requirement has.
func (r Requirement) Kind() RequirementKind {
	return r.kind
}

// Version returns the version specifier of a KindVersion requirement.
func (r Requirement) Version() (VersionOrStar, bool) {
	return r.version, r.kind == KindVersion
}

// Git returns the git source of a KindGit requirement.
func (r Requirement) Git() (*GitSource, bool) {
	if r.kind != KindGit {
		return nil, false
	}
	return r.git, true
}

// Path returns the local path of a KindPath requirement.
func (r Requirement) Path() (string, bool) {
	if r.kind != KindPath {
		return "", false
	}
	return r.path, true
}

func (r Requirement) String() string {
	switch r.kind {
	case KindGit:
		return fmt.Sprintf("%s @ git+%s", r.Name, r.git.URL)
	case KindPath:
		return fmt.Sprintf("%s @ %s", r.Name, r.path)
	default:
		return fmt.Sprintf("%s %s", r.Name, r.version)
	}
}
