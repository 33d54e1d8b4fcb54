// Package catalog is the static registry of checks the dashboard knows about.
// It is loaded once from the embedded checks.yaml and never mutated.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tag marks which half of a project a check applies to.
type Tag string

const (
	TagFrontend Tag = "frontend"
	TagBackend  Tag = "backend"
)

// Role says where the runner invokes a check.
type Role string

const (
	RoleEnforce Role = "enforce"
	RoleHook    Role = "hook"
)

// Bundle names the coarse groups toggled by --no-frontend / --no-backend.
const (
	BundleFrontend = "frontend"
	BundleBackend  = "backend"
)

// Setting types understood by the schema.
const (
	TypeBool   = "bool"
	TypeString = "string"
	TypeInt    = "int"
	TypeEnum   = "enum"
)

// SettingSchema describes one per-check option.
type SettingSchema struct {
	Key     string   `yaml:"key" json:"key"`
	Type    string   `yaml:"type" json:"type"`
	Default any      `yaml:"default" json:"default"`
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// Check is an immutable check descriptor.
type Check struct {
	ID       string          `yaml:"id" json:"id"`
	Label    string          `yaml:"label" json:"label"`
	Flag     string          `yaml:"flag" json:"flag"`
	Env      string          `yaml:"env" json:"env"`
	Tags     []Tag           `yaml:"tags" json:"tags"`
	Role     Role            `yaml:"role" json:"role"`
	Bundle   string          `yaml:"bundle,omitempty" json:"bundle,omitempty"`
	Enabled  bool            `yaml:"enabled" json:"enabled"`
	Markers  []string        `yaml:"markers" json:"markers"`
	Settings []SettingSchema `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// HasTag reports whether c carries tag.
func (c Check) HasTag(tag Tag) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Schema returns the setting schema for key.
func (c Check) Schema(key string) (SettingSchema, bool) {
	for _, s := range c.Settings {
		if s.Key == key {
			return s, true
		}
	}
	return SettingSchema{}, false
}

//go:embed checks.yaml
var checksYAML []byte

var (
	checks []Check
	byID   map[string]int
)

func init() {
	var doc struct {
		Checks []Check `yaml:"checks"`
	}
	if err := yaml.Unmarshal(checksYAML, &doc); err != nil {
		panic(fmt.Sprintf("catalog: parse checks.yaml: %v", err))
	}
	checks = doc.Checks
	byID = make(map[string]int, len(checks))
	for i, c := range checks {
		if _, dup := byID[c.ID]; dup {
			panic(fmt.Sprintf("catalog: duplicate check id %q", c.ID))
		}
		byID[c.ID] = i
	}
}

// All returns the catalog in catalog order. The slice is a copy.
func All() []Check {
	out := make([]Check, len(checks))
	copy(out, checks)
	return out
}

// Lookup returns the check registered under id.
func Lookup(id string) (Check, bool) {
	i, ok := byID[id]
	if !ok {
		return Check{}, false
	}
	return checks[i], true
}

// Known reports whether id is in the catalog.
func Known(id string) bool {
	_, ok := byID[id]
	return ok
}

// Bundle returns the ids belonging to the named bundle, in catalog order.
func Bundle(name string) []string {
	var ids []string
	for _, c := range checks {
		if c.Bundle == name {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// DefaultToggles returns the catalog default for every check.
func DefaultToggles() map[string]bool {
	out := make(map[string]bool, len(checks))
	for _, c := range checks {
		out[c.ID] = c.Enabled
	}
	return out
}

// DefaultOrder lists the checks enabled by default, in catalog order.
func DefaultOrder() []string {
	var ids []string
	for _, c := range checks {
		if c.Enabled {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Markers returns the log markers of every check, in catalog order.
func Markers() []MarkerSet {
	out := make([]MarkerSet, 0, len(checks))
	for _, c := range checks {
		if len(c.Markers) == 0 {
			continue
		}
		m := make([]string, len(c.Markers))
		copy(m, c.Markers)
		out = append(out, MarkerSet{CheckID: c.ID, Markers: m})
	}
	return out
}

// MarkerSet pairs a check id with the runner output fragments that announce it.
type MarkerSet struct {
	CheckID string
	Markers []string
}
