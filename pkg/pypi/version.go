package pypi

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Star is the literal token the wheel ecosystem uses for "any version".
const Star = "*"

// VersionOrStar is a version specifier that is either a concrete set of
// version-range constraints or the `*` wildcard. The wildcard matches
// everything, like an empty constraint set would, but the two are textually
// distinct: serializing a wildcard always yields the literal `*`, never an
// empty string.
type VersionOrStar struct {
	star        bool
	source      string
	constraints *semver.Constraints
}

// AnyVersion returns the wildcard specifier.
func AnyVersion() VersionOrStar {
	return VersionOrStar{star: true, source: Star}
}

// ParseVersionOrStar parses a version specifier, recognizing the `*` wildcard
// as its own variant rather than handing it to the constraint parser.
func ParseVersionOrStar(s string) (VersionOrStar, error) {
	if s == Star {
		return AnyVersion(), nil
	}

	c, err := semver.NewConstraint(s)
	if err != nil {
		return VersionOrStar{}, fmt.Errorf("invalid version specifier %q: %w", s, err)
	}

	return VersionOrStar{source: s, constraints: c}, nil
}

// IsStar reports whether the specifier is the wildcard.
func (v VersionOrStar) IsStar() bool {
	return v.star
}

// Constraints returns the underlying constraint set used for resolution. For
// the wildcard this is nil, meaning no constraint at all.
func (v VersionOrStar) Constraints() *semver.Constraints {
	if v.star {
		return nil
	}
	return v.constraints
}

// Matches reports whether the given version satisfies the specifier.
func (v VersionOrStar) Matches(ver *semver.Version) bool {
	if v.star {
		return true
	}
	return v.constraints.Check(ver)
}

// String re-emits the specifier as the user wrote it. A wildcard renders as
// the literal `*`.
func (v VersionOrStar) String() string {
	return v.source
}
