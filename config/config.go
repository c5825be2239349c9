// Package config loads the settings shared by a template bundle: where
// templates and cached artifacts live, which cache backend to use, the limits
// applied while parsing and rendering, and the locale used by filters.
//
// Settings come from, in increasing precedence: Default, a YAML file, a .env
// file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // time zone names must validate without a system database

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	Development = "development"
	Production  = "production"
)

// GenericError is shown in place of error details outside development.
const GenericError = "An error occurred. Please try again later."

// Config is the complete configuration of a bundle.
type Config struct {
	Env           string `yaml:"env" validate:"oneof=development production"`
	SecretKey     string `yaml:"secret_key"`
	CacheBackend  string `yaml:"cache_backend" validate:"oneof=none memory file sqlite"`
	CacheDir      string `yaml:"cache_dir"`
	CacheOutput   bool   `yaml:"cache_output"`
	StripComments bool   `yaml:"strip_comments"`
	MaxDepth      int    `yaml:"max_depth" validate:"gte=0"`
	MaxIterations int    `yaml:"max_iterations" validate:"gte=0"`
	Minify        bool   `yaml:"minify"`
	Locale        string `yaml:"locale" validate:"omitempty,bcp47_language_tag"`
	Timezone      string `yaml:"timezone" validate:"omitempty,timezone"`
	TemplateDir   string `yaml:"template_dir"`
	Watch         bool   `yaml:"watch"`
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Env:           Production,
		CacheBackend:  "none",
		StripComments: true,
		MaxDepth:      64,
		Locale:        "en",
	}
}

// Load reads the YAML file and the env file, either of which may be empty, and
// applies the process environment on top.  A missing env file is ignored.
func Load(file, envFile string) (*Config, error) {
	return load(file, envFile, os.LookupEnv)
}

func load(file, envFile string, lookup func(string) (string, bool)) (*Config, error) {
	var c = Default()
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := c.decodeYAML(f); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	var dotenv map[string]string
	if envFile != "" {
		var err error
		dotenv, err = godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", envFile, err)
		}
	}
	var env = func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := c.applyEnv(env); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decodeYAML(r io.Reader) error {
	var dec = yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv(env func(string) (string, bool)) error {
	var strs = map[string]*string{
		"APP_ENV":               &c.Env,
		"APP_SECRET":            &c.SecretKey,
		"BRACKET_CACHE_BACKEND": &c.CacheBackend,
		"BRACKET_CACHE_DIR":     &c.CacheDir,
		"BRACKET_LOCALE":        &c.Locale,
		"BRACKET_TIMEZONE":      &c.Timezone,
		"BRACKET_TEMPLATE_DIR":  &c.TemplateDir,
	}
	for key, field := range strs {
		if v, ok := env(key); ok {
			*field = strings.TrimSpace(v)
		}
	}

	var bools = map[string]*bool{
		"BRACKET_CACHE_OUTPUT":   &c.CacheOutput,
		"BRACKET_STRIP_COMMENTS": &c.StripComments,
		"BRACKET_MINIFY":         &c.Minify,
		"BRACKET_WATCH":          &c.Watch,
	}
	for key, field := range bools {
		if v, ok := env(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*field = b
		}
	}

	var ints = map[string]*int{
		"BRACKET_MAX_DEPTH":      &c.MaxDepth,
		"BRACKET_MAX_ITERATIONS": &c.MaxIterations,
	}
	for key, field := range ints {
		if v, ok := env(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*field = n
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks field values and the cache directory requirement of the
// persistent backends.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		var msgs []string
		for _, e := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: invalid value %q (%s)", e.Field(), fmt.Sprint(e.Value()), e.Tag()))
		}
		return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
	}
	if (c.CacheBackend == "file" || c.CacheBackend == "sqlite") && c.CacheDir == "" {
		return fmt.Errorf("config: cache_dir is required for the %s cache backend", c.CacheBackend)
	}
	return nil
}

// IsDevelopment reports whether detailed diagnostics may be shown.
func (c *Config) IsDevelopment() bool {
	return c.Env == Development
}

// PublicError returns the text to show a user for err.
func (c *Config) PublicError(err error) string {
	if err == nil {
		return ""
	}
	if c.IsDevelopment() {
		return err.Error()
	}
	return GenericError
}

// Language returns the configured locale, or English.
func (c *Config) Language() language.Tag {
	if c.Locale == "" {
		return language.English
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// Location returns the configured time zone, or the local one.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
