package conda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	for _, tag := range []string{"linux-64", "linux-aarch64", "osx-64", "osx-arm64", "win-64", "noarch"} {
		t.Run(tag, func(t *testing.T) {
			p, err := ParsePlatform(tag)
			require.NoError(t, err)
			assert.Equal(t, tag, p.String())
		})
	}

	// Tags are case-insensitive on input but canonical on output.
	p, err := ParsePlatform("Linux-64")
	require.NoError(t, err)
	assert.Equal(t, Linux64, p)
}

func TestParsePlatformUnknown(t *testing.T) {
	for _, tag := range []string{"", "linux", "amiga-500", "linux_64"} {
		t.Run(tag, func(t *testing.T) {
			_, err := ParsePlatform(tag)
			assert.Error(t, err)
		})
	}
}

func TestCurrentPlatform(t *testing.T) {
	p := CurrentPlatform()
	assert.Contains(t, KnownPlatforms(), p)
	assert.NotEqual(t, NoArch, p)
}
