// Package render holds the view models shared by every front end. Builders
// read the intake shell and form state and flatten it into plain structs that
// templates and terminal output can consume without touching the state
// machine.
package render

// View names which screen a Page shows.
type View string

const (
	ViewSelector View = "selector"
	ViewForm     View = "form"
)

// Page is everything a renderer needs for one screen.
type Page struct {
	Title    string        `json:"title"`
	View     View          `json:"view"`
	Selector *SelectorView `json:"selector,omitempty"`
	Form     *FormView     `json:"form,omitempty"`
}

// SelectorView is the role question.
type SelectorView struct {
	Question string       `json:"question"`
	Choices  []ChoiceView `json:"choices"`
}

// ChoiceView is one answer of the role question.
type ChoiceView struct {
	Role        string `json:"role"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Href        string `json:"href"`
}

// FormView is one intake form with its live outcome.
type FormView struct {
	ID          string      `json:"id"`
	Role        string      `json:"role"`
	Title       string      `json:"title"`
	Action      string      `json:"action"`
	ChangeHref  string      `json:"change_href"`
	SubmitLabel string      `json:"submit_label"`
	BusyLabel   string      `json:"busy_label"`
	Fields      []FieldView `json:"fields"`

	Outcome      string      `json:"outcome"`
	InFlight     bool        `json:"in_flight"`
	SubmissionID string      `json:"submission_id,omitempty"`
	Failure      string      `json:"failure,omitempty"`
	Result       *ResultView `json:"result,omitempty"`
}

// FieldView is one input control.
type FieldView struct {
	Name     string       `json:"name"`
	Label    string       `json:"label"`
	Kind     string       `json:"kind"`
	Help     string       `json:"help,omitempty"`
	Value    string       `json:"value"`
	Min      string       `json:"min,omitempty"`
	Max      string       `json:"max,omitempty"`
	Step     string       `json:"step,omitempty"`
	Required bool         `json:"required"`
	Options  []OptionView `json:"options,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// OptionView is a select option.
type OptionView struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// ResultView is the success panel.
type ResultView struct {
	RiskLevel       string              `json:"risk_level"`
	Probability     string              `json:"probability,omitempty"`
	Prediction      string              `json:"prediction,omitempty"`
	HighRisk        bool                `json:"high_risk"`
	Recommendations *RecommendationView `json:"recommendations,omitempty"`
}

// RecommendationView is the advice list under a result.
type RecommendationView struct {
	Class   string               `json:"class"`
	Heading string               `json:"heading"`
	Items   []RecommendationItem `json:"items"`
}

// RecommendationItem carries both the sanitised HTML body and a plain text
// rendering of the whole item.
type RecommendationItem struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
	Text  string `json:"text"`
}
