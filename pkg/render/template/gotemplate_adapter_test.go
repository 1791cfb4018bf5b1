package template_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-riskintake/pkg/render/template/gotemplate"
	"github.com/goliatone/go-riskintake/pkg/testsupport"
)

var templatesFS = fstest.MapFS{
	"hello.tpl":        {Data: []byte("Hello {{ name }}!")},
	"use-global.tpl":   {Data: []byte("env={{ settings.env }}")},
	"use-filter.tpl":   {Data: []byte("{{ name|exclaim }}")},
	"tokens.tpl":       {Data: []byte(`{% for t in tokens %}{{ t.name|cssvar }}:{{ t.value }};{% endfor %}`)},
	"partials/row.tpl": {Data: []byte("[{{ row.label }}]")},
	"list.tpl":         {Data: []byte(`{% for row in rows %}{% include "partials/row.tpl" %}{% endfor %}`)},
}

type row struct {
	Label string `json:"label"`
}

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
	if result != "Hello Ada!" || written != result {
		t.Fatalf("render mismatch: result %q written %q", result, written)
	}
}

func TestEngine_StructsUseJSONNames(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.RenderTemplate("list", map[string]any{
		"rows": []row{{Label: "a"}, {Label: "b"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "[a][b]" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	got, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "env=staging" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("exclaim", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("exclaim", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	got, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_CSSVarFilter(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.RenderTemplate("tokens", map[string]any{
		"tokens": []map[string]any{
			{"name": "color.surface", "value": "#111"},
			{"name": "radius_md", "value": "8px"},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "--color-surface:#111;--radius-md:8px;" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_RenderString(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.Render("{{ a }}+{{ b }}", map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "1+2" {
		t.Fatalf("got %q", got)
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_BaseDirShadowsFS(t *testing.T) {
	dir := t.TempDir()
	override := `{% for row in rows %}<{% include "partials/row.tpl" %}>{% endfor %}`
	if err := os.WriteFile(filepath.Join(dir, "list.tpl"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithBaseDir(dir), gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, err := engine.RenderTemplate("list", map[string]any{"rows": []row{{Label: "a"}}})
	if err != nil {
		t.Fatalf("render list: %v", err)
	}
	if got != "<[a]>" {
		t.Fatalf("expected override with bundled partial, got %q", got)
	}

	got, err = engine.RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render hello: %v", err)
	}
	if got != "Hello Ada!" {
		t.Fatalf("expected bundled template, got %q", got)
	}
}

func TestEngine_MissingBaseDir(t *testing.T) {
	_, err := gotemplate.New(gotemplate.WithBaseDir(filepath.Join(t.TempDir(), "nope")), gotemplate.WithFS(templatesFS))
	if err == nil {
		t.Fatalf("expected error for missing base dir")
	}
}
