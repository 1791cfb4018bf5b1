package web

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

const (
	VariantDark  = "dark"
	VariantLight = "light"
)

// DefaultManifest is the built-in palette. The base tokens are the dark
// look; the light variant overrides surfaces and text.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "riskintake",
		Version: "1.0.0",
		Tokens: map[string]string{
			"color.background": "#0f172a",
			"color.surface":    "#1e293b",
			"color.border":     "#334155",
			"color.text":       "#e2e8f0",
			"color.muted":      "#94a3b8",
			"color.accent":     "#38bdf8",
			"color.danger":     "#f87171",
			"color.success":    "#4ade80",
			"radius":           "10px",
			"font.family":      "system-ui, -apple-system, Segoe UI, sans-serif",
		},
		Assets: theme.Assets{
			Prefix: "/assets",
			Files: map[string]string{
				"stylesheet": StylesheetName,
				"script":     ScriptName,
			},
		},
		Variants: map[string]theme.Variant{
			VariantDark: {},
			VariantLight: {
				Tokens: map[string]string{
					"color.background": "#f8fafc",
					"color.surface":    "#ffffff",
					"color.border":     "#cbd5e1",
					"color.text":       "#0f172a",
					"color.muted":      "#475569",
					"color.accent":     "#0369a1",
					"color.danger":     "#b91c1c",
					"color.success":    "#15803d",
				},
			},
		},
	}
}

// resolveTheme merges the variant's tokens over the manifest's and derives
// CSS custom properties from the result.
func resolveTheme(manifest *theme.Manifest, variant, assetPrefix string) (*theme.RendererConfig, error) {
	if manifest == nil {
		return nil, fmt.Errorf("web renderer: theme manifest is required")
	}
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = VariantDark
	}
	v, ok := manifest.Variants[variant]
	if !ok && len(manifest.Variants) > 0 {
		return nil, fmt.Errorf("web renderer: theme %q has no variant %q", manifest.Name, variant)
	}

	tokens := make(map[string]string, len(manifest.Tokens)+len(v.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	for key, value := range v.Tokens {
		tokens[key] = value
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars[cssVarName(key)] = value
	}

	prefix := strings.TrimRight(assetPrefix, "/")
	if prefix == "" {
		prefix = strings.TrimRight(manifest.Assets.Prefix, "/")
	}
	files := make(map[string]string, len(manifest.Assets.Files)+len(v.Assets.Files))
	for key, value := range manifest.Assets.Files {
		files[key] = value
	}
	for key, value := range v.Assets.Files {
		files[key] = value
	}

	return &theme.RendererConfig{
		Theme:   manifest.Name,
		Variant: variant,
		Tokens:  tokens,
		CSSVars: cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			return prefix + "/" + file
		},
	}, nil
}

func cssVarName(token string) string {
	return "--" + strings.NewReplacer(".", "-", "_", "-", " ", "-").Replace(strings.ToLower(token))
}

// rendererTheme is the template-facing slice of a theme.RendererConfig.
type rendererTheme struct {
	Name         string `json:"name"`
	Variant      string `json:"variant"`
	CSSVarsStyle string `json:"css_vars_style"`
	Stylesheet   string `json:"stylesheet"`
	Script       string `json:"script"`
}

func buildThemeContext(cfg *theme.RendererConfig) rendererTheme {
	if cfg == nil {
		return rendererTheme{}
	}
	ctx := rendererTheme{
		Name:         cfg.Theme,
		Variant:      cfg.Variant,
		CSSVarsStyle: cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		ctx.Stylesheet = cfg.AssetURL("stylesheet")
		ctx.Script = cfg.AssetURL("script")
	}
	return ctx
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}
