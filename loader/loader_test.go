package loader

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	var path = filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDir(t *testing.T) {
	var root = t.TempDir()
	writeFile(t, root, "page.html", "<p>{x}</p>")
	writeFile(t, root, "partials/nav.html", "[foreach links as l {{l}}]")
	writeFile(t, root, "notes.txt", "ignored")

	var d = NewDir(root)
	var tests = []struct {
		name    string
		content string
		found   bool
	}{
		{"page.html", "<p>{x}</p>", true},
		{"./partials/nav.html", "[foreach links as l {{l}}]", true},
		{"partials/../page.html", "<p>{x}</p>", true},
		{"missing.html", "", false},
		{"../page.html", "", false},
		{"/etc/passwd", "", false},
	}
	for _, test := range tests {
		content, err := d.Load(test.name)
		switch {
		case test.found && err != nil:
			t.Errorf("%s: unexpected error: %v", test.name, err)
		case !test.found && !errors.Is(err, ErrNotFound):
			t.Errorf("%s: expected ErrNotFound, got %v", test.name, err)
		case content != test.content:
			t.Errorf("%s: expected %q, got %q", test.name, test.content, content)
		}
	}

	names, err := d.Names(".html")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(names)
	if diff := cmp.Diff([]string{"page.html", "partials/nav.html"}, names); diff != "" {
		t.Errorf("names (-expected +got)\n%s", diff)
	}

	if got, want := d.Path("partials/nav.html"), filepath.Join(root, "partials", "nav.html"); got != want {
		t.Errorf("expected path %q, got %q", want, got)
	}
}

func TestMemoryAndChain(t *testing.T) {
	var overlay = NewMemory(map[string]string{"a": "overlay a"})
	var base = NewMemory(map[string]string{"a": "base a", "b": "base b"})
	var chain = Chain{overlay, base}

	for name, expected := range map[string]string{"a": "overlay a", "b": "base b"} {
		got, err := chain.Load(name)
		if err != nil || got != expected {
			t.Errorf("%s: expected %q, got %q (%v)", name, expected, got, err)
		}
	}

	overlay.Set("b", "overlay b")
	if got, _ := chain.Load("b"); got != "overlay b" {
		t.Errorf("expected overlay to win after Set, got %q", got)
	}

	_, err := chain.Load("c")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Name != "c" {
		t.Errorf("expected NotFoundError for c, got %v", err)
	}
}
