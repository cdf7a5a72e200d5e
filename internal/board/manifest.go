package board

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/shiny-updates/internal/core"
)

var (
	ErrManifestNotFound = errors.New("manifest file not found")
	ErrManifestParsing  = errors.New("manifest parsing failed")
)

// Manifest describes the rows known to the site and its pending updates.
type Manifest struct {
	Core         *ManifestCore     `yaml:"core"`
	Translations *ManifestLocales  `yaml:"translations"`
	Plugins      []ManifestPackage `yaml:"plugins"`
	Themes       []ManifestPackage `yaml:"themes"`
}

// ManifestPackage is a plugin or theme entry.
type ManifestPackage struct {
	// Plugin is the basename ("akismet/akismet.php"); empty for themes.
	Plugin     string `yaml:"plugin"`
	Slug       string `yaml:"slug"`
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	NewVersion string `yaml:"new_version"`
}

type ManifestCore struct {
	Version    string `yaml:"version"`
	NewVersion string `yaml:"new_version"`
	Locale     string `yaml:"locale"`
}

type ManifestLocales struct {
	Pending int `yaml:"pending"`
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestParsing, err)
	}
	for i, p := range m.Plugins {
		if p.Plugin == "" || p.Slug == "" {
			return nil, fmt.Errorf("%w: plugin #%d needs both plugin and slug", ErrManifestParsing, i)
		}
	}
	for i, t := range m.Themes {
		if t.Slug == "" {
			return nil, fmt.Errorf("%w: theme #%d has no slug", ErrManifestParsing, i)
		}
	}
	return m, nil
}

// Board builds the rows and badges the manifest describes.
func (m *Manifest) Board() *Board {
	totals := make(map[core.Entity]int)
	var rows []Row

	if m.Core != nil {
		r := Row{
			Subject:    core.Subject{Entity: core.EntityCore, ID: core.CoreSubjectID},
			Name:       "WordPress",
			Version:    m.Core.Version,
			NewVersion: m.Core.NewVersion,
			Locale:     m.Core.Locale,
			HasUpdate:  m.Core.NewVersion != "" && m.Core.NewVersion != m.Core.Version,
		}
		if r.HasUpdate {
			totals[core.EntityCore]++
		}
		rows = append(rows, r)
	}
	if m.Translations != nil && m.Translations.Pending > 0 {
		totals[core.EntityTranslation] = 1
		rows = append(rows, Row{
			Subject:   core.Subject{Entity: core.EntityTranslation, ID: core.TranslationSubjectID},
			Name:      "Translations",
			HasUpdate: true,
		})
	}
	for _, p := range m.Plugins {
		r := packageRow(core.Subject{Entity: core.EntityPlugin, ID: p.Plugin}, p)
		if r.HasUpdate {
			totals[core.EntityPlugin]++
		}
		rows = append(rows, r)
	}
	for _, t := range m.Themes {
		r := packageRow(core.Subject{Entity: core.EntityTheme, ID: t.Slug}, t)
		if r.HasUpdate {
			totals[core.EntityTheme]++
		}
		rows = append(rows, r)
	}

	b := New(NewCounters(totals))
	for _, r := range rows {
		b.Add(r)
	}
	return b
}

func packageRow(s core.Subject, p ManifestPackage) Row {
	name := p.Name
	if name == "" {
		name = p.Slug
	}
	return Row{
		Subject:    s,
		Name:       name,
		Slug:       p.Slug,
		Version:    p.Version,
		NewVersion: p.NewVersion,
		HasUpdate:  p.NewVersion != "" && p.NewVersion != p.Version,
	}
}
