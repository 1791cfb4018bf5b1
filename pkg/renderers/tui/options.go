package tui

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/pkg/recommend"
)

// Theme captures optional message prefixes the session applies when
// printing. Keep minimal to avoid coupling session logic to ANSI specifics.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithCatalog sets the recommendation catalog shown under results.
func WithCatalog(catalog *recommend.Catalog) Option {
	return func(s *Session) {
		s.catalog = catalog
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}
