// Package models maps the short model keys shown to users onto backend
// model identifiers.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Default catalog values
const (
	DefaultPrefix = "amazon."
	DefaultSuffix = "-v1:0"
)

// DefaultKeys lists the selectable models in display order
var DefaultKeys = []string{"nova-pro", "nova-micro", "nova-lite"}

var (
	// ErrUnknownModel is returned for keys that are not in the catalog
	ErrUnknownModel = errors.New("unknown model")

	// ErrEmptyCatalog is returned when a catalog has no models
	ErrEmptyCatalog = errors.New("model catalog is empty")
)

// Entry describes one selectable model
type Entry struct {
	Key  string `json:"key" yaml:"key" toml:"key"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	// ID overrides the prefix/suffix expansion
	ID string `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
}

// Spec is the catalog definition, as loaded from a file or built from config
type Spec struct {
	Default string  `yaml:"default" toml:"default"`
	Prefix  string  `yaml:"prefix" toml:"prefix"`
	Suffix  string  `yaml:"suffix" toml:"suffix"`
	Models  []Entry `yaml:"models" toml:"models"`
}

// SpecFromKeys builds a spec for plain keys expanded with prefix and suffix
func SpecFromKeys(keys []string, defaultKey, prefix, suffix string) Spec {
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			entries = append(entries, Entry{Key: k})
		}
	}
	return Spec{Default: defaultKey, Prefix: prefix, Suffix: suffix, Models: entries}
}

// Catalog is an immutable set of models
type Catalog struct {
	entries    []Entry
	index      map[string]int
	defaultKey string
}

// New validates a spec and builds a catalog. The first model is the default
// when none is named.
func New(spec Spec) (*Catalog, error) {
	if len(spec.Models) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		entries: make([]Entry, 0, len(spec.Models)),
		index:   make(map[string]int, len(spec.Models)),
	}
	for _, e := range spec.Models {
		if e.Key == "" {
			return nil, errors.New("model entry without key")
		}
		if _, dup := c.index[e.Key]; dup {
			return nil, fmt.Errorf("duplicate model key %q", e.Key)
		}
		if e.ID == "" {
			e.ID = spec.Prefix + e.Key + spec.Suffix
		}
		if e.Name == "" {
			e.Name = displayName(e.Key)
		}
		c.index[e.Key] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	c.defaultKey = c.entries[0].Key
	if spec.Default != "" {
		if _, ok := c.index[spec.Default]; !ok {
			return nil, fmt.Errorf("default model %q: %w", spec.Default, ErrUnknownModel)
		}
		c.defaultKey = spec.Default
	}
	return c, nil
}

// Default returns the built-in Nova catalog
func Default() *Catalog {
	c, err := New(SpecFromKeys(DefaultKeys, "", DefaultPrefix, DefaultSuffix))
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a catalog from a YAML (.yaml, .yml) or TOML (.toml) file
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog: %w", err)
	}

	spec := Spec{Prefix: DefaultPrefix, Suffix: DefaultSuffix}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &spec)
	case ".toml":
		err = toml.Unmarshal(data, &spec)
	default:
		return nil, fmt.Errorf("unsupported model catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse model catalog %s: %w", path, err)
	}

	return New(spec)
}

// Default returns the default model key
func (c *Catalog) Default() string {
	return c.defaultKey
}

// Keys returns the model keys in display order
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of every entry
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Contains reports whether key is selectable
func (c *Catalog) Contains(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Resolve returns the backend model ID for key
func (c *Catalog) Resolve(key string) (string, error) {
	i, ok := c.index[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, key)
	}
	return c.entries[i].ID, nil
}

// DisplayName returns a human readable name for key
func (c *Catalog) DisplayName(key string) string {
	if i, ok := c.index[key]; ok {
		return c.entries[i].Name
	}
	return displayName(key)
}

// Select returns key when it is in the catalog and the default otherwise
func (c *Catalog) Select(key string) string {
	if c.Contains(key) {
		return key
	}
	return c.defaultKey
}

// displayName turns "nova-pro" into "Nova Pro"
func displayName(key string) string {
	words := strings.Split(key, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
