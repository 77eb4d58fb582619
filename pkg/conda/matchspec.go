package conda

import (
	"fmt"
	"strings"
)

// MatchSpec is a conda-side dependency declaration: a package name plus
// optional version-constraint text. The constraint text is carried verbatim;
// interpreting it is the solver's job.
type MatchSpec struct {
	Name string
	Spec string
}

// ParseMatchSpec splits a match spec string into its name and constraint
// parts. The name is the first whitespace-delimited token, lowercased; conda
// package names are case-insensitive.
func ParseMatchSpec(s string) (MatchSpec, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return MatchSpec{}, fmt.Errorf("empty match spec")
	}

	return MatchSpec{
		Name: strings.ToLower(fields[0]),
		Spec: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), fields[0])),
	}, nil
}

// DependencyName extracts the package name from a dependency entry as found
// in binary-package metadata, e.g. "libfoo >=1.2.3,<2" yields "libfoo".
func DependencyName(depends string) string {
	fields := strings.Fields(depends)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func (m MatchSpec) String() string {
	if m.Spec == "" {
		return m.Name
	}
	return m.Name + " " + m.Spec
}
