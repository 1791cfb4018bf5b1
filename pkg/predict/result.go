package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const (
	LabelHighRisk = "High Risk"
	LabelLowRisk  = "Low Risk"
)

// Result is the decoded body of a successful prediction call. Only RiskLevel
// is always expected; the other fields depend on the model behind the
// endpoint.
type Result struct {
	RiskLevel       string   `json:"risk_level"`
	RiskProbability *float64 `json:"risk_probability,omitempty"`
	Prediction      *int     `json:"prediction,omitempty"`
}

// UnmarshalJSON accepts the binary flag as any integral JSON number, so a
// service that serialises it as 1.0 still decodes. A fractional flag is an
// error.
func (r *Result) UnmarshalJSON(data []byte) error {
	var wire struct {
		RiskLevel       string   `json:"risk_level"`
		RiskProbability *float64 `json:"risk_probability"`
		Prediction      *float64 `json:"prediction"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = Result{RiskLevel: wire.RiskLevel, RiskProbability: wire.RiskProbability}
	if wire.Prediction == nil {
		return nil
	}
	v := *wire.Prediction
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return fmt.Errorf("predict: prediction %v is not an integer", v)
	}
	n := int(v)
	r.Prediction = &n
	return nil
}

// HasPrediction reports whether the service returned the binary flag.
func (r Result) HasPrediction() bool {
	return r.Prediction != nil
}

// HighRisk reports whether the binary flag equals 1. A missing flag is not
// high risk.
func (r Result) HighRisk() bool {
	return r.Prediction != nil && *r.Prediction == 1
}

// PredictionLabel renders the binary flag for display.
func (r Result) PredictionLabel() string {
	if r.HighRisk() {
		return LabelHighRisk
	}
	return LabelLowRisk
}

// ProbabilityLabel renders the probability as a percentage string, or "" when
// the service omitted it.
func (r Result) ProbabilityLabel() string {
	if r.RiskProbability == nil {
		return ""
	}
	return strconv.FormatFloat(*r.RiskProbability, 'f', -1, 64) + "%"
}
