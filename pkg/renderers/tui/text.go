package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-riskintake/pkg/render"
)

// TextName is the registry name of the plain text renderer.
const TextName = "text"

// TextRenderer renders pages as plain text. The terminal session uses it for
// results and the HTTP server serves it for Accept: text/plain.
type TextRenderer struct{}

var _ render.Renderer = TextRenderer{}

func (TextRenderer) Name() string {
	return TextName
}

func (TextRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

func (t TextRenderer) Render(_ context.Context, page render.Page) ([]byte, error) {
	var b strings.Builder
	switch {
	case page.View == render.ViewForm && page.Form != nil:
		writeForm(&b, *page.Form)
	case page.Selector != nil:
		writeSelector(&b, *page.Selector)
	default:
		return nil, fmt.Errorf("tui: page %q has nothing to render", page.View)
	}
	return []byte(b.String()), nil
}

// Outcome renders only the outcome section of a form: the failure message,
// or the result with its recommendations. It is empty while idle.
func (TextRenderer) Outcome(form render.FormView) string {
	var b strings.Builder
	writeOutcome(&b, form)
	return strings.TrimRight(b.String(), "\n")
}

func writeSelector(b *strings.Builder, view render.SelectorView) {
	fmt.Fprintln(b, view.Question)
	for _, c := range view.Choices {
		fmt.Fprintf(b, "- %s: %s\n", c.Label, c.Description)
	}
}

func writeForm(b *strings.Builder, form render.FormView) {
	fmt.Fprintln(b, form.Title)
	fmt.Fprintln(b, strings.Repeat("=", len(form.Title)))
	for _, f := range form.Fields {
		fmt.Fprintf(b, "%s: %s\n", f.Label, fieldDisplay(f))
		if f.Error != "" {
			fmt.Fprintf(b, "  ! %s\n", f.Error)
		}
	}
	if form.Outcome != "idle" {
		b.WriteString("\n")
		writeOutcome(b, form)
	}
}

func writeOutcome(b *strings.Builder, form render.FormView) {
	switch {
	case form.InFlight:
		fmt.Fprintln(b, form.BusyLabel)
	case form.Failure != "":
		fmt.Fprintf(b, "Error: %s\n", form.Failure)
	case form.Result != nil:
		r := form.Result
		fmt.Fprintf(b, "Risk Level: %s\n", r.RiskLevel)
		if r.Probability != "" {
			fmt.Fprintf(b, "Risk Probability: %s\n", r.Probability)
		}
		if r.Prediction != "" {
			fmt.Fprintf(b, "Prediction: %s\n", r.Prediction)
		}
		if rec := r.Recommendations; rec != nil && len(rec.Items) > 0 {
			fmt.Fprintf(b, "\n%s\n", rec.Heading)
			for _, item := range rec.Items {
				fmt.Fprintf(b, "  - %s\n", item.Text)
			}
		}
	}
}

func fieldDisplay(f render.FieldView) string {
	for _, opt := range f.Options {
		if opt.Selected {
			return opt.Label
		}
	}
	if f.Value == "" {
		return "-"
	}
	return f.Value
}
