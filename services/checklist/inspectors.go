package checklist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// InspectorProfile carries the per-inspector presentation and notification
// settings. The set of inspectors is configuration, not code.
type InspectorProfile struct {
	// Color is a hex string ("#1a6b2f") used to render the inspector's name.
	Color  string   `yaml:"color"`
	Emails []string `yaml:"emails"`
}

// InspectorDirectory maps inspector names to their profiles.
type InspectorDirectory map[string]InspectorProfile

// LoadInspectors reads an inspector directory from a YAML file. A missing path
// yields an empty directory rather than an error.
func LoadInspectors(path string) (InspectorDirectory, error) {
	if path == "" {
		return InspectorDirectory{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return InspectorDirectory{}, nil
		}
		return nil, fmt.Errorf("read inspectors file: %w", err)
	}

	var dir InspectorDirectory
	if err := yaml.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("parse inspectors file: %w", err)
	}
	if dir == nil {
		dir = InspectorDirectory{}
	}
	return dir, nil
}

// Color returns the configured name color for an inspector, or black.
func (d InspectorDirectory) Color(name string) string {
	if p, ok := d[name]; ok && p.Color != "" {
		return p.Color
	}
	return "#000000"
}

// Recipients returns the notification addresses for an inspector.
func (d InspectorDirectory) Recipients(name string) []string {
	return d[name].Emails
}
