// Package options reads typed module settings from a configuration section.
//
// Configuration values are plain strings; modules coerce them here. A
// Reader collects every conversion problem so Create can report them all
// at once.
//
//	r := options.NewReader(section)
//	width := r.Int("width", 640)
//	vsync := r.Bool("vsync", false)
//	if err := r.Err(); err != nil {
//	    return nil, err
//	}
package options

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/hap-engine/internal/ini"
)

// Reader converts section values, remembering the first problem per key.
type Reader struct {
	section *ini.Section
	errs    []error
}

// NewReader returns a Reader over section. A nil section reads as empty.
func NewReader(section *ini.Section) *Reader {
	if section == nil {
		section = ini.NewSection("")
	}
	return &Reader{section: section}
}

// String returns the value for key, or fallback when absent.
func (r *Reader) String(key, fallback string) string {
	return r.section.Value(key, fallback)
}

// Int returns the value for key parsed as a base-10 integer.
func (r *Reader) Int(key string, fallback int) int {
	v, ok := r.section.Get(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.fail(key, v, "an integer")
		return fallback
	}
	return n
}

// Bool returns the value for key. Accepts true/false, yes/no, on/off, 1/0.
// A bare option reads as true.
func (r *Reader) Bool(key string, fallback bool) bool {
	v, ok := r.section.Get(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	default:
		r.fail(key, v, "a boolean")
		return fallback
	}
}

// Duration returns the value for key as a time.Duration. Go duration syntax
// ("250ms", "2s") is accepted, and a bare integer means seconds.
func (r *Reader) Duration(key string, fallback time.Duration) time.Duration {
	v, ok := r.section.Get(key)
	if !ok {
		return fallback
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, "a duration")
		return fallback
	}
	return d
}

// Positive records an error when n is not greater than zero.
func (r *Reader) Positive(key string, n int) {
	if n <= 0 {
		r.errs = append(r.errs, fmt.Errorf("option %s: must be positive, got %d", key, n))
	}
}

// Require records an error when key is absent or empty.
func (r *Reader) Require(key string) string {
	v, _ := r.section.Get(key)
	if v == "" {
		r.errs = append(r.errs, fmt.Errorf("option %s: required", key))
	}
	return v
}

// Err returns every recorded problem joined, or nil.
func (r *Reader) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return fmt.Errorf("section [%s]: %w", r.section.Name(), errors.Join(r.errs...))
}

func (r *Reader) fail(key, value, want string) {
	r.errs = append(r.errs, fmt.Errorf("option %s: %q is not %s", key, value, want))
}
