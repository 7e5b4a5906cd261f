// Package assets downloads the model artifacts the agent needs at runtime
// (VAD weights, turn-detector lexicons). Downloads are best effort: a failed
// artifact is reported, not fatal, so image builds without network access
// still succeed and the artifact is fetched on first start instead.
package assets

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Artifact is one downloadable file.
type Artifact struct {
	// Name identifies the artifact in logs and summaries.
	Name string `yaml:"name"`

	// URL is where to fetch from. Supported schemes: https, http, s3
	// (s3://bucket/key, resolved against the configured object store).
	URL string `yaml:"url"`

	// SHA256 is the expected hex digest. Empty skips verification.
	SHA256 string `yaml:"sha256,omitempty"`

	// Dest is the path under the data directory. Empty means Name.
	Dest string `yaml:"dest,omitempty"`
}

// Manifest lists the artifacts to download.
type Manifest struct {
	Artifacts []Artifact `yaml:"artifacts"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks every artifact has a name and a usable URL.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Artifacts))
	for i, a := range m.Artifacts {
		if a.Name == "" {
			return fmt.Errorf("artifact %d has no name", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate artifact name %q", a.Name)
		}
		seen[a.Name] = true

		u, err := url.Parse(a.URL)
		if err != nil {
			return fmt.Errorf("artifact %q has an invalid url: %w", a.Name, err)
		}
		switch u.Scheme {
		case "http", "https":
		case "s3":
			if u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
				return fmt.Errorf("artifact %q needs s3://bucket/key, got %q", a.Name, a.URL)
			}
		default:
			return fmt.Errorf("artifact %q has unsupported scheme %q", a.Name, u.Scheme)
		}

		if strings.Contains(a.Dest, "..") {
			return fmt.Errorf("artifact %q dest escapes the data directory", a.Name)
		}
	}
	return nil
}

// destination returns the artifact's path relative to the data directory.
func (a Artifact) destination() string {
	if a.Dest != "" {
		return a.Dest
	}
	return a.Name
}
