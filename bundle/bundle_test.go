package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const infoYAML = `
CFBundleIdentifier: com.nothingonline.nightscouter
CFBundleURLTypes:
  - CFBundleURLName: com.nothingonline.nightscouter
  - CFBundleURLName: nightscouter
    CFBundleURLSchemes:
      - nightscouter
      - nightscouter-widget
  - CFBundleURLSchemes:
      - ignored
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Info.yaml")
	if err := os.WriteFile(path, []byte(infoYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	info, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	id, ok := info.BundleIdentifier()
	if !ok || id != "com.nothingonline.nightscouter" {
		t.Errorf(`expected "com.nothingonline.nightscouter", got %q %t`, id, ok)
	}

	schemes, ok := info.SupportedSchemes()
	if !ok {
		t.Fatal("expected supported schemes")
	}
	if diff := cmp.Diff([]string{"nightscouter", "nightscouter-widget"}, schemes); diff != "" {
		t.Errorf("unexpected schemes (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	info, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error")
	}

	if _, ok := info.BundleIdentifier(); ok {
		t.Error("expected no bundle identifier from a nil info")
	}
	if _, ok := info.SupportedSchemes(); ok {
		t.Error("expected no schemes from a nil info")
	}
}

func TestParseJSON(t *testing.T) {
	info, err := Parse([]byte(`{"CFBundleIdentifier":"com.example","CFBundleURLTypes":[{"CFBundleURLSchemes":["example"]}]}`))
	if err != nil {
		t.Fatal(err)
	}

	if id, _ := info.BundleIdentifier(); id != "com.example" {
		t.Errorf(`expected "com.example", got %q`, id)
	}

	if schemes, _ := info.SupportedSchemes(); len(schemes) != 1 || schemes[0] != "example" {
		t.Errorf(`expected ["example"], got %v`, schemes)
	}
}

func TestMissingOrMalformedKeys(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: `{}`},
		{name: "identifier not a string", doc: `CFBundleIdentifier: [a, b]`},
		{name: "url types not a list", doc: `CFBundleURLTypes: nightscouter`},
		{name: "no schemes", doc: "CFBundleURLTypes:\n  - CFBundleURLName: x\n"},
		{name: "schemes not strings", doc: "CFBundleURLTypes:\n  - CFBundleURLSchemes:\n      - {a: b}\n"},
		{name: "url type not a map", doc: "CFBundleURLTypes:\n  - nightscouter\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info, err := Parse([]byte(tc.doc))
			if err != nil {
				t.Fatal(err)
			}
			if schemes, ok := info.SupportedSchemes(); ok {
				t.Errorf("expected no schemes, got %v", schemes)
			}
			if _, ok := info.BundleIdentifier(); ok {
				t.Error("expected no bundle identifier")
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("CFBundleIdentifier: [unterminated")); err == nil {
		t.Error("expected a parse error")
	}
}
