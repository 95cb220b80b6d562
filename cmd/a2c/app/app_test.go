package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/slink-ws/asciidoc2confluence/internal/wiki/memory"
	pkgerrors "github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/logging"
	"github.com/slink-ws/asciidoc2confluence/pkg/report"
	"github.com/slink-ws/asciidoc2confluence/pkg/result"
)

const wikiURL = "https://wiki.example.com"

func docs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	pages := map[string]string{
		"/docs/a.md": ":DOCUMENT-TITLE: A\n:DOCUMENT-SPACE: DOCS\n\nHello *world*\n",
		"/docs/b.md": ":DOCUMENT-TITLE: B\n:DOCUMENT-SPACE: DOCS\n:DOCUMENT-HIDDEN:\n\nGone\n",
	}
	for path, body := range pages {
		if err := afero.WriteFile(fs, path, []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
	}
	return fs
}

func newTestApp(t *testing.T, out *bytes.Buffer, opts ...Option) *App {
	t.Helper()
	base := []Option{
		WithConfig(&Config{LogLevel: "error"}),
		WithLogger(logging.NewNopLogger()),
		WithFs(docs(t)),
		WithOutput(out),
	}
	app, err := New("1.0.0", "abc123", "2024-01-01", "test", append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return app
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

func TestApp_WithConfigNil(t *testing.T) {
	if _, err := New("1.0.0", "", "", "", WithConfig(nil)); err == nil {
		t.Error("New() accepted a nil config")
	}
}

// TestApp_Store verifies the store selected by the configuration.
func TestApp_Store(t *testing.T) {
	var out bytes.Buffer

	app := newTestApp(t, &out)
	if app.Store() != nil {
		t.Error("Store() without url should be nil")
	}

	app.Config().URL = wikiURL
	if store := app.Store(); store == nil || !store.CanPublish() {
		t.Error("Store() with url should publish")
	}

	app.Config().Dry = true
	if _, ok := app.Store().(*memory.Store); !ok {
		t.Errorf("Store() with --dry = %T, want *memory.Store", app.Store())
	}
}

// TestExecute_Publish runs a full publish against an in-memory wiki.
func TestExecute_Publish(t *testing.T) {
	var out bytes.Buffer
	store := memory.New()
	app := newTestApp(t, &out, WithStore(store))

	args := []string{"--dir", "/docs", "--url", wikiURL, "--user", "u", "--pass", "p", "-o", "json"}
	if err := app.Execute(context.Background(), args); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var rep report.Report
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out.String())
	}
	if got := rep.Result.Count(result.PublishSuccess); got != 1 {
		t.Errorf("published = %d, want 1", got)
	}
	if got := rep.Result.Count(result.SkipHidden); got != 1 {
		t.Errorf("skipped hidden = %d, want 1", got)
	}
	if rep.RunID == "" {
		t.Error("report has no run id")
	}

	titles := store.Titles("DOCS")
	if len(titles) != 1 || titles[0] != "A" {
		t.Errorf("Titles(DOCS) = %v, want [A]", titles)
	}
}

// TestExecute_ConfigError verifies invalid flag combinations print usage.
func TestExecute_ConfigError(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"input and dir", []string{"--input", "/docs/a.md", "--dir", "/docs"}},
		{"nothing to publish", []string{}},
		{"partial credentials", []string{"--dir", "/docs", "--url", wikiURL}},
		{"bad format", []string{"--dir", "/docs", "-o", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			app := newTestApp(t, &out)

			err := app.Execute(context.Background(), tt.args)
			var cfgErr *pkgerrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Execute() error = %v, want ConfigError", err)
			}
			if !strings.Contains(out.String(), "Usage:") {
				t.Errorf("usage not printed, output:\n%s", out.String())
			}
		})
	}
}

// TestExecute_Preview converts without publishing when no url is given.
func TestExecute_Preview(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)

	if err := app.Execute(context.Background(), []string{"--input", "/docs/a.md", "-o", "table"}); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !strings.Contains(out.String(), "----- /docs/a.md [DOCS] A -----") {
		t.Errorf("preview header missing, output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "<em>world</em>") {
		t.Errorf("converted body missing, output:\n%s", out.String())
	}
}

// TestExecute_Dry prints the plan while publishing to memory.
func TestExecute_Dry(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)

	if err := app.Execute(context.Background(), []string{"--dir", "/docs", "--dry", "-o", "json"}); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !strings.Contains(out.String(), "plan: /docs/a.md [DOCS] A") {
		t.Errorf("plan line missing, output:\n%s", out.String())
	}
}

// TestExecute_ConfigFlag verifies a file named by --config is read, with
// explicit flags taking precedence over it.
func TestExecute_ConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a2c.yaml")
	if err := os.WriteFile(path, []byte("dry: true\nspace: OPS\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"file values", []string{"--config", path, "--input", "/docs/a.md"}, "plan: /docs/a.md [OPS] A"},
		{"flag beats file", []string{"--config", path, "--input", "/docs/a.md", "--space", "ENG"}, "plan: /docs/a.md [ENG] A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			app := newTestApp(t, &out)

			if err := app.Execute(context.Background(), append(tt.args, "-o", "json")); err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
			if app.Config().ConfigFile != path {
				t.Errorf("ConfigFile = %s, want %s", app.Config().ConfigFile, path)
			}
		})
	}

	var out bytes.Buffer
	app := newTestApp(t, &out)
	err := app.Execute(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--input", "/docs/a.md"})
	var cfgErr *pkgerrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Execute() error = %v, want ConfigError for a missing file", err)
	}
}

// TestExecute_Version verifies the version subcommand.
func TestExecute_Version(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)

	if err := app.Execute(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	for _, want := range []string{"a2c 1.0.0", "commit:   abc123", "built:    2024-01-01"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("version output missing %q:\n%s", want, out.String())
		}
	}
}
