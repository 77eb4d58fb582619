package conda

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform is a conda platform tag: the operating system and architecture a
// binary package was built for.
type Platform string

const (
	Linux64      Platform = "linux-64"
	LinuxAarch64 Platform = "linux-aarch64"
	Osx64        Platform = "osx-64"
	OsxArm64     Platform = "osx-arm64"
	Win64        Platform = "win-64"
	NoArch       Platform = "noarch"
)

var knownPlatforms = []Platform{
	Linux64,
	LinuxAarch64,
	Osx64,
	OsxArm64,
	Win64,
	NoArch,
}

// KnownPlatforms returns the closed set of platform tags this tool
// understands.
func KnownPlatforms() []Platform {
	platforms := make([]Platform, len(knownPlatforms))
	copy(platforms, knownPlatforms)
	return platforms
}

// ParsePlatform validates a platform tag. An unknown tag is a configuration
// error, not a warning: narrowing to a platform that exists nowhere is
// distinct from narrowing to one a particular environment happens to lack.
func ParsePlatform(s string) (Platform, error) {
	candidate := Platform(strings.ToLower(s))
	for _, p := range knownPlatforms {
		if candidate == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// CurrentPlatform maps the running OS and architecture onto a platform tag.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return OsxArm64
		}
		return Osx64
	case "windows":
		return Win64
	default:
		if runtime.GOARCH == "arm64" {
			return LinuxAarch64
		}
		return Linux64
	}
}

func (p Platform) String() string {
	return string(p)
}
