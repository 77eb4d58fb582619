package pypi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageName(t *testing.T) {
	cases := []struct {
		name       string
		normalized string
	}{
		{name: "requests", normalized: "requests"},
		{name: "Flask", normalized: "flask"},
		{name: "Foo-Bar", normalized: "foo-bar"},
		{name: "foo_bar", normalized: "foo-bar"},
		{name: "foo.bar", normalized: "foo-bar"},
		{name: "foo-_.bar", normalized: "foo-bar"},
		{name: "ruamel.yaml.clib", normalized: "ruamel-yaml-clib"},
		{name: "a", normalized: "a"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			parsed, err := ParsePackageName(c.name)
			require.NoError(t, err)
			assert.Equal(t, c.name, parsed.Source())
			assert.Equal(t, c.normalized, parsed.Normalized())
		})
	}
}

func TestParsePackageNameInvalid(t *testing.T) {
	for _, name := range []string{"", "-foo", "foo-", "_foo", "foo bar", "foo!"} {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePackageName(name)
			assert.Error(t, err)
		})
	}
}

func TestPackageNameEquality(t *testing.T) {
	a, err := ParsePackageName("Foo-Bar")
	require.NoError(t, err)
	b, err := ParsePackageName("foo_bar")
	require.NoError(t, err)

	// Same dependency, different spellings: equal under the normalized form,
	// distinct as display text.
	assert.True(t, a.Equal(b))
	assert.NotEqual(t, a.Source(), b.Source())

	// The normalized form is the container key, so both spellings collide.
	seen := map[string]string{}
	seen[a.Normalized()] = a.Source()
	seen[b.Normalized()] = b.Source()
	assert.Len(t, seen, 1)
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, name := range []string{"Foo-Bar", "foo_bar", "ruamel.yaml"} {
		once := Normalize(name)
		assert.Equal(t, once, Normalize(once))
	}
}
