package pypi

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOrStarWildcardRoundTrip(t *testing.T) {
	v, err := ParseVersionOrStar("*")
	require.NoError(t, err)

	assert.True(t, v.IsStar())
	// The wildcard must serialize back to the literal token, never "".
	assert.Equal(t, "*", v.String())
	assert.Nil(t, v.Constraints())
}

func TestVersionOrStarConstraints(t *testing.T) {
	v, err := ParseVersionOrStar(">=2.28.0, <3")
	require.NoError(t, err)

	assert.False(t, v.IsStar())
	assert.Equal(t, ">=2.28.0, <3", v.String())
	require.NotNil(t, v.Constraints())

	assert.True(t, v.Matches(semver.MustParse("2.31.0")))
	assert.False(t, v.Matches(semver.MustParse("3.0.0")))
	assert.False(t, v.Matches(semver.MustParse("1.0.0")))
}

func TestVersionOrStarMatchesEverything(t *testing.T) {
	v := AnyVersion()
	for _, raw := range []string{"0.0.1", "1.2.3", "99.99.99"} {
		assert.True(t, v.Matches(semver.MustParse(raw)))
	}
}

func TestVersionOrStarInvalid(t *testing.T) {
	_, err := ParseVersionOrStar("not a version")
	assert.Error(t, err)
}
