package ini

import (
	"slices"
	"strings"
)

// Option is a single key/value pair. A bare key without "=" has the value "true".
type Option struct {
	Key   string
	Value string
}

// Section is a named, ordered group of options, normally holding the
// settings of one module.
type Section struct {
	name    string
	options []Option
}

// NewSection returns an empty section. The engine hands one to modules that
// have no section of their own in the configuration file.
func NewSection(name string) *Section {
	return &Section{name: name}
}

// Name returns the section name as written in the header.
func (s *Section) Name() string {
	return s.name
}

// Options returns the section's options in file order.
func (s *Section) Options() []Option {
	return slices.Clone(s.options)
}

// Len returns the number of options in the section.
func (s *Section) Len() int {
	return len(s.options)
}

// Get returns the value for key. When a key repeats, the last occurrence wins.
func (s *Section) Get(key string) (string, bool) {
	return lookup(s.options, key)
}

// Value returns the value for key, or fallback when the key is absent.
func (s *Section) Value(key, fallback string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return fallback
}

// Configuration is the parsed contents of one configuration file.
//
// It is built once by the Loader and never modified afterwards; accessors
// return copies so callers cannot edit the tree in place.
type Configuration struct {
	sections []*Section
	globals  []Option
}

// Sections returns all sections in file order.
func (c *Configuration) Sections() []*Section {
	return slices.Clone(c.sections)
}

// Section returns the first section whose name matches exactly.
func (c *Configuration) Section(name string) (*Section, bool) {
	for _, s := range c.sections {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

// Globals returns the options declared before the first section header.
func (c *Configuration) Globals() []Option {
	return slices.Clone(c.globals)
}

// Global returns the value of a global option.
func (c *Configuration) Global(key string) (string, bool) {
	return lookup(c.globals, key)
}

// String renders the configuration in canonical file form.
func (c *Configuration) String() string {
	var b strings.Builder
	_ = c.Encode(&b) //nolint:errcheck // strings.Builder never fails
	return b.String()
}

func lookup(options []Option, key string) (string, bool) {
	for i := len(options) - 1; i >= 0; i-- {
		if options[i].Key == key {
			return options[i].Value, true
		}
	}
	return "", false
}

// parseOption splits a raw option token on its first "=".
// It reports false when the key is empty.
func parseOption(raw string) (Option, bool) {
	key, value, found := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return Option{}, false
	}
	if !found {
		return Option{Key: key, Value: "true"}, true
	}
	return Option{Key: key, Value: strings.TrimSpace(value)}, true
}
