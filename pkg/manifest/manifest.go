package manifest

import (
	"fmt"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/tdejager/pixi/pkg/conda"
	"github.com/tdejager/pixi/pkg/git"
	"github.com/tdejager/pixi/pkg/pypi"
)

// FileName is the name of the project manifest.
const FileName = "pixi.toml"

// DefaultEnvironmentName is the implicit environment built from the
// manifest's top-level dependency tables.
const DefaultEnvironmentName = "default"

// Project is the manifest's project table.
type Project struct {
	Name      string
	Channels  []string
	Platforms []conda.Platform
}

// EnvironmentConfig is the declared shape of one environment: which platforms
// it targets (falling back to the project platforms when empty) and what it
// depends on in each ecosystem.
type EnvironmentConfig struct {
	Platforms        []conda.Platform
	Dependencies     []conda.MatchSpec
	PypiDependencies map[string]pypi.Requirement
}

// Manifest is the parsed project manifest.
type Manifest struct {
	Project Project

	names        []string
	environments map[string]*EnvironmentConfig
	digest       string
}

type manifestTOML struct {
	Project          projectTOML                `toml:"project"`
	Dependencies     map[string]string          `toml:"dependencies"`
	PypiDependencies map[string]any             `toml:"pypi-dependencies"`
	Environments     map[string]environmentTOML `toml:"environments"`
}

type projectTOML struct {
	Name      string   `toml:"name"`
	Channels  []string `toml:"channels"`
	Platforms []string `toml:"platforms"`
}

type environmentTOML struct {
	Platforms        []string          `toml:"platforms"`
	Dependencies     map[string]string `toml:"dependencies"`
	PypiDependencies map[string]any    `toml:"pypi-dependencies"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest document. Environment names are ordered with the
// default environment first and the declared environments alphabetically
// after it, so every derived listing is deterministic.
func Parse(data []byte) (*Manifest, error) {
	var doc manifestTOML
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if doc.Project.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if len(doc.Project.Platforms) == 0 {
		return nil, fmt.Errorf("project %q declares no platforms", doc.Project.Name)
	}

	platforms, err := parsePlatforms(doc.Project.Platforms)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Project: Project{
			Name:      doc.Project.Name,
			Channels:  doc.Project.Channels,
			Platforms: platforms,
		},
		environments: make(map[string]*EnvironmentConfig),
		digest:       fmt.Sprintf("%016x", xxhash.Sum64(data)),
	}

	defaultEnv, err := parseEnvironment(environmentTOML{
		Dependencies:     doc.Dependencies,
		PypiDependencies: doc.PypiDependencies,
	})
	if err != nil {
		return nil, fmt.Errorf("environment %q: %w", DefaultEnvironmentName, err)
	}
	m.names = append(m.names, DefaultEnvironmentName)
	m.environments[DefaultEnvironmentName] = defaultEnv

	extra := make([]string, 0, len(doc.Environments))
	for name := range doc.Environments {
		if name == DefaultEnvironmentName {
			return nil, fmt.Errorf("environment name %q is reserved", DefaultEnvironmentName)
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)

	for _, name := range extra {
		env, err := parseEnvironment(doc.Environments[name])
		if err != nil {
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}
		m.names = append(m.names, name)
		m.environments[name] = env
	}

	return m, nil
}

func parsePlatforms(tags []string) ([]conda.Platform, error) {
	platforms := make([]conda.Platform, 0, len(tags))
	for _, tag := range tags {
		p, err := conda.ParsePlatform(tag)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

func parseEnvironment(doc environmentTOML) (*EnvironmentConfig, error) {
	platforms, err := parsePlatforms(doc.Platforms)
	if err != nil {
		return nil, err
	}

	env := &EnvironmentConfig{
		Platforms:        platforms,
		PypiDependencies: make(map[string]pypi.Requirement),
	}

	condaNames := make([]string, 0, len(doc.Dependencies))
	for name := range doc.Dependencies {
		condaNames = append(condaNames, name)
	}
	sort.Strings(condaNames)
	for _, name := range condaNames {
		spec, err := conda.ParseMatchSpec(name + " " + doc.Dependencies[name])
		if err != nil {
			return nil, err
		}
		env.Dependencies = append(env.Dependencies, spec)
	}

	for name, value := range doc.PypiDependencies {
		req, err := parsePypiRequirement(name, value)
		if err != nil {
			return nil, err
		}
		env.PypiDependencies[req.Name.Normalized()] = req
	}

	return env, nil
}

// parsePypiRequirement decides the requirement's shape once, from the TOML
// value: a bare string is a version specifier, a table selects a git, path,
// or detailed version requirement.
func parsePypiRequirement(name string, value any) (pypi.Requirement, error) {
	pkgName, err := pypi.ParsePackageName(name)
	if err != nil {
		return pypi.Requirement{}, err
	}

	switch v := value.(type) {
	case string:
		version, err := pypi.ParseVersionOrStar(v)
		if err != nil {
			return pypi.Requirement{}, fmt.Errorf("dependency %q: %w", name, err)
		}
		return pypi.NewVersionRequirement(pkgName, version), nil

	case map[string]any:
		return parsePypiRequirementTable(pkgName, v)

	default:
		return pypi.Requirement{}, fmt.Errorf("dependency %q: expected a version string or a table, got %T", name, value)
	}
}

func parsePypiRequirementTable(name pypi.PackageName, table map[string]any) (pypi.Requirement, error) {
	str := func(key string) (string, error) {
		raw, ok := table[key]
		if !ok {
			return "", nil
		}
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("dependency %q: %s must be a string", name, key)
		}
		return s, nil
	}

	gitURL, err := str("git")
	if err != nil {
		return pypi.Requirement{}, err
	}
	path, err := str("path")
	if err != nil {
		return pypi.Requirement{}, err
	}

	switch {
	case gitURL != "" && path != "":
		return pypi.Requirement{}, fmt.Errorf("dependency %q: git and path are mutually exclusive", name)

	case gitURL != "":
		source := pypi.GitSource{URL: gitURL}
		if rev, err := str("rev"); err != nil {
			return pypi.Requirement{}, err
		} else if rev != "" {
			parsed := git.ParseRev(rev)
			source.Rev = &parsed
		}
		if source.Branch, err = str("branch"); err != nil {
			return pypi.Requirement{}, err
		}
		if source.Tag, err = str("tag"); err != nil {
			return pypi.Requirement{}, err
		}
		req, err := pypi.NewGitRequirement(name, source)
		if err != nil {
			return pypi.Requirement{}, fmt.Errorf("dependency %q: %w", name, err)
		}
		return req, nil

	case path != "":
		req, err := pypi.NewPathRequirement(name, path)
		if err != nil {
			return pypi.Requirement{}, fmt.Errorf("dependency %q: %w", name, err)
		}
		return req, nil

	default:
		raw, err := str("version")
		if err != nil {
			return pypi.Requirement{}, err
		}
		if raw == "" {
			raw = pypi.Star
		}
		version, err := pypi.ParseVersionOrStar(raw)
		if err != nil {
			return pypi.Requirement{}, fmt.Errorf("dependency %q: %w", name, err)
		}
		return pypi.NewVersionRequirement(name, version), nil
	}
}

// Digest is the content digest of the manifest bytes, recorded in the lock
// file to detect staleness.
func (m *Manifest) Digest() string {
	return m.digest
}

// EnvironmentNames returns all environment names, default first.
func (m *Manifest) EnvironmentNames() []string {
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

// Environment looks up an environment by name.
func (m *Manifest) Environment(name string) (*EnvironmentConfig, bool) {
	env, ok := m.environments[name]
	return env, ok
}

// Platforms returns the platforms an environment targets: its own override if
// declared, otherwise the project platforms.
func (m *Manifest) Platforms(name string) []conda.Platform {
	if env, ok := m.environments[name]; ok && len(env.Platforms) > 0 {
		return env.Platforms
	}
	return m.Project.Platforms
}

// Combination is one (environment, platform) pair the manifest declares.
type Combination struct {
	Environment string
	Platform    conda.Platform
}

// Combinations expands the manifest into every (environment, platform) pair
// it requires a resolution for.
func (m *Manifest) Combinations() []Combination {
	var combos []Combination
	for _, name := range m.names {
		for _, platform := range m.Platforms(name) {
			combos = append(combos, Combination{Environment: name, Platform: platform})
		}
	}
	return combos
}
