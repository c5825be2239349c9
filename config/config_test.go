package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	var path = filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	c, err := load("", "", env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Errorf("(-expected +got)\n%s", diff)
	}
	if c.IsDevelopment() {
		t.Error("default should be production")
	}
}

func TestPrecedence(t *testing.T) {
	var file = write(t, "bracket.yaml", `
env: development
cache_backend: file
cache_dir: /tmp/from-yaml
max_depth: 10
locale: pt-BR
timezone: Europe/Lisbon
`)
	var envFile = write(t, ".env", "APP_SECRET=dotenv-secret\nBRACKET_CACHE_DIR=/tmp/from-dotenv\nBRACKET_MINIFY=true\n")
	c, err := load(file, envFile, env(map[string]string{
		"BRACKET_CACHE_DIR": "/tmp/from-env",
		"BRACKET_MAX_DEPTH": "12",
	}))
	if err != nil {
		t.Fatal(err)
	}

	var expected = Default()
	expected.Env = Development
	expected.SecretKey = "dotenv-secret"
	expected.CacheBackend = "file"
	expected.CacheDir = "/tmp/from-env"
	expected.MaxDepth = 12
	expected.Minify = true
	expected.Locale = "pt-BR"
	expected.Timezone = "Europe/Lisbon"
	if diff := cmp.Diff(expected, c); diff != "" {
		t.Errorf("(-expected +got)\n%s", diff)
	}
	if c.Language() != language.MustParse("pt-BR") {
		t.Errorf("unexpected language %v", c.Language())
	}
	if c.Location().String() != "Europe/Lisbon" {
		t.Errorf("unexpected location %v", c.Location())
	}
}

func TestMissingEnvFile(t *testing.T) {
	if _, err := load("", filepath.Join(t.TempDir(), "nope.env"), env(nil)); err != nil {
		t.Errorf("a missing env file should be ignored: %v", err)
	}
	if _, err := load(filepath.Join(t.TempDir(), "nope.yaml"), "", env(nil)); err == nil {
		t.Error("a missing config file should be an error")
	}
}

func TestInvalid(t *testing.T) {
	var tests = []struct {
		name string
		yaml string
		env  map[string]string
		msg  string
	}{
		{"env", "env: staging", nil, "Env"},
		{"backend", "cache_backend: redis", nil, "CacheBackend"},
		{"depth", "max_depth: -1", nil, "MaxDepth"},
		{"locale", "locale: '!!'", nil, "Locale"},
		{"timezone", "timezone: Mars/Olympus", nil, "Timezone"},
		{"cache dir", "cache_backend: sqlite", nil, "cache_dir"},
		{"unknown field", "colour: blue", nil, "colour"},
		{"bad bool", "", map[string]string{"BRACKET_WATCH": "sometimes"}, "BRACKET_WATCH"},
		{"bad int", "", map[string]string{"BRACKET_MAX_ITERATIONS": "many"}, "BRACKET_MAX_ITERATIONS"},
	}
	for _, test := range tests {
		var file = write(t, "c.yaml", test.yaml)
		_, err := load(file, "", env(test.env))
		if err == nil {
			t.Errorf("%s: expected error", test.name)
			continue
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%s: expected %q in %q", test.name, test.msg, err.Error())
		}
	}
}

func TestPublicError(t *testing.T) {
	var err = errors.New("open /srv/templates/page.html: permission denied")
	var c = Default()
	if got := c.PublicError(err); got != GenericError {
		t.Errorf("production leaked %q", got)
	}
	c.Env = Development
	if got := c.PublicError(err); got != err.Error() {
		t.Errorf("development should show details, got %q", got)
	}
	if got := c.PublicError(nil); got != "" {
		t.Errorf("expected empty string for nil, got %q", got)
	}
}
