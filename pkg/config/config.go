// Package config loads YAML configuration files with ${VAR} expansion.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that check themselves.
type Validator interface {
	Validate() error
}

// Load decodes filename into target, which should already hold defaults.
// Environment variables are expanded before parsing, unknown keys are
// rejected, and target is validated when it implements Validator.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	if err := Decode(bytes.NewReader([]byte(os.ExpandEnv(string(data)))), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// Decode strictly decodes YAML from r into target. An empty document
// leaves target untouched.
func Decode[T any](r io.Reader, target *T) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
