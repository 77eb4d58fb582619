package pypi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdejager/pixi/pkg/git"
)

func mustName(t *testing.T, s string) PackageName {
	t.Helper()
	name, err := ParsePackageName(s)
	require.NoError(t, err)
	return name
}

func TestVersionRequirement(t *testing.T) {
	req := NewVersionRequirement(mustName(t, "requests"), AnyVersion())

	assert.Equal(t, KindVersion, req.Kind())
	version, ok := req.Version()
	require.True(t, ok)
	assert.True(t, version.IsStar())

	_, ok = req.Git()
	assert.False(t, ok)
	_, ok = req.Path()
	assert.False(t, ok)
}

func TestGitRequirement(t *testing.T) {
	rev := git.ParseRev("v1.2.3")
	req, err := NewGitRequirement(mustName(t, "mypkg"), GitSource{
		URL: "https://github.com/example/mypkg.git",
		Rev: &rev,
	})
	require.NoError(t, err)

	assert.Equal(t, KindGit, req.Kind())
	source, ok := req.Git()
	require.True(t, ok)
	assert.Equal(t, "https://github.com/example/mypkg.git", source.URL)
	require.NotNil(t, source.Rev)
	assert.False(t, source.Rev.IsFull())
}

func TestGitRequirementValidation(t *testing.T) {
	_, err := NewGitRequirement(mustName(t, "mypkg"), GitSource{})
	assert.Error(t, err)

	rev := git.ParseRev("abc123")
	_, err = NewGitRequirement(mustName(t, "mypkg"), GitSource{
		URL:    "https://github.com/example/mypkg.git",
		Rev:    &rev,
		Branch: "main",
	})
	assert.Error(t, err)
}

func TestPathRequirement(t *testing.T) {
	req, err := NewPathRequirement(mustName(t, "local-pkg"), "../local-pkg")
	require.NoError(t, err)

	assert.Equal(t, KindPath, req.Kind())
	path, ok := req.Path()
	require.True(t, ok)
	assert.Equal(t, "../local-pkg", path)

	_, err = NewPathRequirement(mustName(t, "local-pkg"), "")
	assert.Error(t, err)
}
