package render

import (
	"github.com/goliatone/go-riskintake/pkg/intake"
	"github.com/goliatone/go-riskintake/pkg/model"
	"github.com/goliatone/go-riskintake/pkg/predict"
	"github.com/goliatone/go-riskintake/pkg/recommend"
)

// Links resolves the URLs a page points at.
type Links interface {
	Intake(role intake.Role) string
	Home() string
}

// PathLinks is the default route layout: "/" and "/intake/{role}".
type PathLinks struct {
	Prefix string
}

func (l PathLinks) Intake(role intake.Role) string {
	return l.Prefix + "/intake/" + string(role)
}

func (l PathLinks) Home() string {
	if l.Prefix == "" {
		return "/"
	}
	return l.Prefix + "/"
}

// SelectorPage builds the landing page.
func SelectorPage(sel intake.Selector, links Links) Page {
	view := BuildSelector(sel, links)
	return Page{Title: "Heart Risk Intake", View: ViewSelector, Selector: &view}
}

// FormPage builds the page for a showing form.
func FormPage(form *intake.Form, catalog *recommend.Catalog, links Links) Page {
	view := BuildForm(form, catalog, links)
	return Page{Title: view.Title, View: ViewForm, Form: &view}
}

// BuildSelector flattens the role question.
func BuildSelector(sel intake.Selector, links Links) SelectorView {
	choices := sel.Choices()
	view := SelectorView{Question: sel.Question, Choices: make([]ChoiceView, 0, len(choices))}
	for _, c := range choices {
		cv := ChoiceView{Role: string(c.Role), Label: c.Label, Description: c.Description}
		if links != nil {
			cv.Href = links.Intake(c.Role)
		}
		view.Choices = append(view.Choices, cv)
	}
	return view
}

// BuildForm flattens the form's fields and outcome. catalog may be nil, in
// which case no recommendations are attached.
func BuildForm(form *intake.Form, catalog *recommend.Catalog, links Links) FormView {
	def := form.Definition()
	values := form.Values()
	errs := form.FieldErrors()
	outcome := form.Outcome()

	view := FormView{
		ID:           def.ID,
		Role:         string(def.Role),
		Title:        def.Title,
		SubmitLabel:  def.SubmitLabel,
		BusyLabel:    def.BusyLabel,
		Fields:       make([]FieldView, 0, len(def.Fields)),
		Outcome:      outcome.Kind.String(),
		InFlight:     outcome.InFlight(),
		SubmissionID: outcome.SubmissionID,
	}
	if links != nil {
		view.Action = links.Intake(def.Role)
		view.ChangeHref = links.Home()
	}

	for _, spec := range def.Fields {
		view.Fields = append(view.Fields, buildField(spec, values[spec.Name], errs[spec.Name]))
	}

	switch outcome.Kind {
	case intake.OutcomeFailed:
		view.Failure = outcome.Message
	case intake.OutcomeSucceeded:
		if outcome.Result != nil {
			view.Result = BuildResult(def.ID, def.ShowProbability, *outcome.Result, catalog)
		}
	}
	return view
}

// BuildResult builds the success panel for a prediction.
func BuildResult(formID string, showProbability bool, result predict.Result, catalog *recommend.Catalog) *ResultView {
	view := &ResultView{
		RiskLevel: result.RiskLevel,
		HighRisk:  result.HighRisk(),
	}
	if showProbability {
		view.Probability = result.ProbabilityLabel()
	}
	if result.HasPrediction() {
		view.Prediction = result.PredictionLabel()
	}
	if catalog != nil {
		if list, ok := catalog.Select(formID, result); ok {
			view.Recommendations = buildRecommendations(list)
		}
	}
	return view
}

func buildRecommendations(list recommend.List) *RecommendationView {
	view := &RecommendationView{
		Class:   string(list.Class),
		Heading: list.Heading,
		Items:   make([]RecommendationItem, 0, len(list.Items)),
	}
	for _, item := range list.Items {
		view.Items = append(view.Items, RecommendationItem{
			Title: item.Title,
			Body:  item.Body,
			Text:  item.PlainText(),
		})
	}
	return view
}

func buildField(spec model.FieldSpec, value model.Value, problem string) FieldView {
	fv := FieldView{
		Name:     spec.Name,
		Label:    spec.Label,
		Kind:     string(spec.Kind),
		Help:     spec.Help,
		Value:    value.String(),
		Required: spec.Required,
		Error:    problem,
	}
	if spec.IsNumeric() {
		fv.Min, fv.Max, fv.Step = spec.Bounds()
		return fv
	}

	current, _ := value.Code()
	fv.Options = make([]OptionView, 0, len(spec.Options))
	for _, opt := range spec.Options {
		fv.Options = append(fv.Options, OptionView{
			Code:     opt.Code,
			Label:    opt.Label,
			Selected: opt.Code == current,
		})
	}
	return fv
}
