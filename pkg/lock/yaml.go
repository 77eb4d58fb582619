package lock

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tdejager/pixi/pkg/conda"
	"github.com/tdejager/pixi/pkg/pypi"
)

// lockDocument is the on-disk shape of the lock file. The environments block
// is kept as a raw node so that environment order survives a round-trip.
type lockDocument struct {
	Version        int       `yaml:"version"`
	ManifestDigest string    `yaml:"manifest-digest,omitempty"`
	Environments   yaml.Node `yaml:"environments"`
}

type environmentDocument struct {
	Platforms []string                  `yaml:"platforms"`
	Packages  map[string][]packageEntry `yaml:"packages"`
}

// packageEntry is one resolved package on disk. Which of the conda and pypi
// keys carries the URL is the ecosystem discriminator: exactly one must be
// present.
type packageEntry struct {
	Conda   string   `yaml:"conda,omitempty"`
	Pypi    string   `yaml:"pypi,omitempty"`
	Name    string   `yaml:"name"`
	Version string   `yaml:"version"`
	Build   string   `yaml:"build,omitempty"`
	MD5     string   `yaml:"md5,omitempty"`
	SHA256  string   `yaml:"sha256,omitempty"`
	Depends []string `yaml:"depends,omitempty"`
}

// Read loads and parses a lock file from disk.
func Read(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing lock file %s: %w", path, err)
	}
	return lf, nil
}

// Parse decodes a lock file document.
func Parse(data []byte) (*LockFile, error) {
	var doc lockDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Version != FileVersion {
		return nil, fmt.Errorf("unsupported lock file version %d (expected %d)", doc.Version, FileVersion)
	}

	lf := NewLockFile(doc.ManifestDigest)

	if doc.Environments.Kind == 0 {
		return lf, nil
	}
	if doc.Environments.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("environments must be a mapping")
	}

	content := doc.Environments.Content
	for i := 0; i+1 < len(content); i += 2 {
		name := content[i].Value

		var envDoc environmentDocument
		if err := content[i+1].Decode(&envDoc); err != nil {
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}

		env := lf.AddEnvironment(name)
		for _, tag := range envDoc.Platforms {
			platform, err := conda.ParsePlatform(tag)
			if err != nil {
				return nil, fmt.Errorf("environment %q: %w", name, err)
			}
			env.AddPlatform(platform)

			for _, entry := range envDoc.Packages[tag] {
				pkg, err := entry.toPackage()
				if err != nil {
					return nil, fmt.Errorf("environment %q platform %s: %w", name, platform, err)
				}
				if err := env.AddPackage(platform, pkg); err != nil {
					return nil, fmt.Errorf("environment %q platform %s: %w", name, platform, err)
				}
			}
		}
	}

	return lf, nil
}

func (e packageEntry) toPackage() (Package, error) {
	switch {
	case e.Conda != "" && e.Pypi != "":
		return Package{}, fmt.Errorf("package %q declares both a conda and a pypi URL", e.Name)

	case e.Conda != "":
		md5, err := decodeDigest(e.MD5, 16, "md5", e.Name)
		if err != nil {
			return Package{}, err
		}
		sha256, err := decodeDigest(e.SHA256, 32, "sha256", e.Name)
		if err != nil {
			return Package{}, err
		}
		return NewCondaPackage(&CondaPackage{
			Name:    e.Name,
			Version: e.Version,
			Build:   e.Build,
			URL:     e.Conda,
			MD5:     md5,
			SHA256:  sha256,
			Depends: e.Depends,
		}), nil

	case e.Pypi != "":
		name, err := pypi.ParsePackageName(e.Name)
		if err != nil {
			return Package{}, err
		}
		sha256, err := decodeDigest(e.SHA256, 32, "sha256", e.Name)
		if err != nil {
			return Package{}, err
		}
		return NewPypiPackage(&PypiPackage{
			Name:    name,
			Version: e.Version,
			URL:     e.Pypi,
			SHA256:  sha256,
		}), nil

	default:
		return Package{}, fmt.Errorf("package %q declares neither a conda nor a pypi URL", e.Name)
	}
}

func decodeDigest(s string, size int, kind, pkg string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	digest, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s digest for package %q: %w", kind, pkg, err)
	}
	if len(digest) != size {
		return nil, fmt.Errorf("invalid %s digest for package %q: got %d bytes, expected %d", kind, pkg, len(digest), size)
	}
	return digest, nil
}

func entryFromPackage(p Package) packageEntry {
	if c := p.Conda; c != nil {
		return packageEntry{
			Conda:   c.URL,
			Name:    c.Name,
			Version: c.Version,
			Build:   c.Build,
			MD5:     hex.EncodeToString(c.MD5),
			SHA256:  hex.EncodeToString(c.SHA256),
			Depends: c.Depends,
		}
	}
	return packageEntry{
		Pypi:    p.Pypi.URL,
		Name:    p.Pypi.Name.Source(),
		Version: p.Pypi.Version,
		SHA256:  hex.EncodeToString(p.Pypi.SHA256),
	}
}

// Render serializes the lock into its on-disk document form. Environment and
// platform order are emitted exactly as held in memory, so rendering an
// unchanged lock is byte-stable.
func (l *LockFile) Render() ([]byte, error) {
	environments := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, name := range l.names {
		env := l.environments[name]

		envNode, err := environmentNode(env)
		if err != nil {
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}

		environments.Content = append(environments.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			envNode,
		)
	}

	doc := lockDocument{
		Version:        FileVersion,
		ManifestDigest: l.manifestDigest,
		Environments:   *environments,
	}
	return yaml.Marshal(doc)
}

func environmentNode(env *Environment) (*yaml.Node, error) {
	platforms := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	packages := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, platform := range env.platforms {
		platforms.Content = append(platforms.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: platform.String()})

		entries := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, pkg := range env.packages[platform] {
			var entryNode yaml.Node
			if err := entryNode.Encode(entryFromPackage(pkg)); err != nil {
				return nil, err
			}
			entries.Content = append(entries.Content, &entryNode)
		}

		packages.Content = append(packages.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: platform.String()},
			entries,
		)
	}

	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "platforms"},
		platforms,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "packages"},
		packages,
	)
	return node, nil
}

// Write persists the lock file atomically: the document is written to a
// temporary file in the target directory and renamed into place, so a crash
// mid-write never leaves a partial lock behind.
func (l *LockFile) Write(path string) (err error) {
	data, err := l.Render()
	if err != nil {
		return fmt.Errorf("rendering lock file: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pixi-lock-*")
	if err != nil {
		return fmt.Errorf("creating temporary lock file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temporary lock file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary lock file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing lock file %s: %w", path, err)
	}
	return nil
}
