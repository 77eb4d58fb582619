package git

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// fullRevLength is the length of a full commit hash. Classification is purely
// structural: no repository is consulted.
const fullRevLength = 40

// Rev is a git revision string classified at construction time as either a
// full commit hash or a short reference (branch, tag, or abbreviated hash). A
// short Rev may still fail to resolve against an actual repository.
type Rev struct {
	value string
	full  bool
}

// ParseRev classifies a revision string. Exactly 40 characters means a full
// commit hash; anything else is a short reference.
func ParseRev(s string) Rev {
	return Rev{value: s, full: len(s) == fullRevLength}
}

// IsFull reports whether the revision is a full commit hash.
func (r Rev) IsFull() bool {
	return r.full
}

// Full returns the full commit hash, if the revision is one.
func (r Rev) Full() (string, bool) {
	if !r.full {
		return "", false
	}
	return r.value, true
}

func (r Rev) String() string {
	return r.value
}

// ReferenceKind distinguishes the two ways downstream tooling treats a
// revision.
type ReferenceKind int

const (
	// FullCommit pins an exact commit; no repository lookup is needed.
	FullCommit ReferenceKind = iota
	// BranchOrTagOrCommit must be resolved against an actual repository.
	BranchOrTagOrCommit
)

// Reference is the downstream-facing form of a revision.
type Reference struct {
	Kind  ReferenceKind
	Value string
}

// Reference converts the revision into the form handed to checkout tooling.
func (r Rev) Reference() Reference {
	if r.full {
		return Reference{Kind: FullCommit, Value: r.value}
	}
	return Reference{Kind: BranchOrTagOrCommit, Value: r.value}
}

// Resolve turns the revision into a concrete commit hash using a local
// repository. Full revisions pin directly without a lookup; short revisions
// resolve as a branch, tag, or abbreviated hash. No network access occurs.
func (r Rev) Resolve(repo *gogit.Repository) (plumbing.Hash, error) {
	if r.full {
		return plumbing.NewHash(r.value), nil
	}

	h, err := repo.ResolveRevision(plumbing.Revision(r.value))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving revision %q: %w", r.value, err)
	}
	return *h, nil
}
