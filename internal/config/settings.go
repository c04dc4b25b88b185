package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDatabase  = "postgres"
	DefaultSchema    = "public"
	DefaultPrecision = 5000

	// PostgreSQL truncates identifiers beyond NAMEDATALEN-1 bytes.
	maxIdentifierLen = 63
)

// Settings are the worker's tunables. Database and Schema only take effect
// at process start; Precision is re-read on SIGHUP.
type Settings struct {
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Precision int    `yaml:"precision"`
}

func Defaults() Settings {
	return Settings{
		Database:  DefaultDatabase,
		Schema:    DefaultSchema,
		Precision: DefaultPrecision,
	}
}

// Interval is Precision as a duration.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.Precision) * time.Millisecond
}

func (s Settings) Validate() error {
	if s.Database == "" {
		return errors.New("database must not be empty")
	}
	if err := validateIdentifier(s.Schema); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return s.validatePrecision()
}

func (s Settings) validatePrecision() error {
	if s.Precision < 0 || s.Precision > math.MaxInt32 {
		return fmt.Errorf("precision %d outside [0, %d]", s.Precision, math.MaxInt32)
	}
	return nil
}

func validateIdentifier(name string) error {
	switch {
	case name == "":
		return errors.New("identifier must not be empty")
	case len(name) > maxIdentifierLen:
		return fmt.Errorf("identifier %q longer than %d bytes", name, maxIdentifierLen)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("identifier %q contains a NUL byte", name)
	}
	return nil
}

// RestartRequired lists the restart-only settings that differ between s and next.
func (s Settings) RestartRequired(next Settings) []string {
	var changed []string
	if s.Database != next.Database {
		changed = append(changed, "database")
	}
	if s.Schema != next.Schema {
		changed = append(changed, "schema")
	}
	return changed
}

// fileSettings distinguishes keys that are absent from the file from zero values.
type fileSettings struct {
	Database  *string `yaml:"database"`
	Schema    *string `yaml:"schema"`
	Precision *int    `yaml:"precision"`
}

// Loader produces Settings from a base (environment) overlaid by an optional
// YAML file. It is called once at startup and again on every reload.
type Loader struct {
	Base Settings
	Path string
}

func (l Loader) Load() (Settings, error) {
	s, err := l.merge()
	if err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Reload re-reads the file for a running worker. Only precision is judged:
// database and schema cannot change without a restart, so a bad value there
// must not block a precision change.
func (l Loader) Reload() (Settings, error) {
	s, err := l.merge()
	if err != nil {
		return Settings{}, err
	}
	if err := s.validatePrecision(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (l Loader) merge() (Settings, error) {
	s := l.Base
	if l.Path != "" {
		fs, err := readFile(l.Path)
		if err != nil {
			return Settings{}, err
		}
		if fs.Database != nil {
			s.Database = *fs.Database
		}
		if fs.Schema != nil {
			s.Schema = *fs.Schema
		}
		if fs.Precision != nil {
			s.Precision = *fs.Precision
		}
	}
	return s, nil
}

func readFile(path string) (fileSettings, error) {
	var fs fileSettings
	f, err := os.Open(path)
	if err != nil {
		return fs, fmt.Errorf("open settings file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fs); err != nil && !errors.Is(err, io.EOF) {
		return fs, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return fs, nil
}

// Marshal renders settings as YAML.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
