// Package web renders intake pages as server-side HTML using embedded pongo2
// templates and a go-theme palette.
package web

import (
	"context"
	"fmt"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-riskintake/pkg/render"
	rendertemplate "github.com/goliatone/go-riskintake/pkg/render/template"
	"github.com/goliatone/go-riskintake/pkg/render/template/gotemplate"
)

// Name is the registry name of the HTML renderer.
const Name = "html"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templatesDir     string
	templateRenderer rendertemplate.TemplateRenderer
	manifest         *theme.Manifest
	variant          string
	assetPrefix      string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk. Files found
// there shadow the bundled ones; anything missing falls back to the bundle.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templatesDir = path
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithManifest replaces the built-in palette.
func WithManifest(manifest *theme.Manifest) Option {
	return func(cfg *config) {
		if manifest != nil {
			cfg.manifest = manifest
		}
	}
}

// WithVariant selects the palette variant ("dark" or "light" for the
// built-in manifest).
func WithVariant(variant string) Option {
	return func(cfg *config) {
		cfg.variant = variant
	}
}

// WithAssetPrefix overrides the URL prefix assets are served under.
func WithAssetPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.assetPrefix = prefix
	}
}

type Renderer struct {
	templates rendertemplate.TemplateRenderer
	theme     rendererTheme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS: TemplatesFS(),
		manifest:   DefaultManifest(),
		variant:    VariantDark,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	themeCfg, err := resolveTheme(cfg.manifest, cfg.variant, cfg.assetPrefix)
	if err != nil {
		return nil, err
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithBaseDir(cfg.templatesDir),
			gotemplate.WithFS(cfg.templateFS),
		)
		if err != nil {
			return nil, fmt.Errorf("web renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, theme: buildThemeContext(themeCfg)}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(_ context.Context, page render.Page) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("web renderer: template renderer is nil")
	}

	result, err := r.templates.RenderTemplate("page", map[string]any{
		"page":  page,
		"theme": r.theme,
	})
	if err != nil {
		return nil, fmt.Errorf("web renderer: render template: %w", err)
	}
	return []byte(result), nil
}
