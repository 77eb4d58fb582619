package pypi

import (
	"fmt"
	"regexp"
	"strings"
)

// validName matches the character set the wheel ecosystem allows for project
// names: alphanumeric runs joined by single-or-repeated `-`, `_` or `.`
// separators, starting and ending on an alphanumeric.
var validName = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

var separatorRun = regexp.MustCompile(`[-_.]+`)

// PackageName is a wheel-ecosystem package name that keeps the source form of
// the name around. Equality and container membership use only the normalized
// form, so "Foo-Bar" and "foo_bar" identify the same dependency while each
// still renders as it was written.
type PackageName struct {
	source     string
	normalized string
}

// ParsePackageName validates and normalizes a package name. The normalized
// form is the lowercased name with every run of `-`, `_` and `.` collapsed to
// a single `-`. Normalizing an already-normalized name is a no-op.
func ParsePackageName(name string) (PackageName, error) {
	if !validName.MatchString(name) {
		return PackageName{}, fmt.Errorf("invalid package name %q", name)
	}

	return PackageName{
		source:     name,
		normalized: Normalize(name),
	}, nil
}

// Normalize applies the ecosystem's name normalization rule to a raw string.
func Normalize(name string) string {
	return strings.ToLower(separatorRun.ReplaceAllString(name, "-"))
}

// Source returns the name exactly as it was written.
func (n PackageName) Source() string {
	return n.source
}

// Normalized returns the canonical form of the name. Use this as the key for
// any map or set of packages.
func (n PackageName) Normalized() string {
	return n.normalized
}

// Equal reports whether two names identify the same package, regardless of
// how either was spelled.
func (n PackageName) Equal(other PackageName) bool {
	return n.normalized == other.normalized
}

func (n PackageName) String() string {
	return n.source
}
