package intake

import "github.com/goliatone/go-riskintake/pkg/predict"

// OutcomeKind enumerates the submission lifecycle.
type OutcomeKind int

const (
	OutcomeIdle OutcomeKind = iota
	OutcomeInFlight
	OutcomeSucceeded
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInFlight:
		return "in_flight"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Outcome is the live submission state of a form. Result is set only when
// Kind is OutcomeSucceeded and Message only when Kind is OutcomeFailed.
type Outcome struct {
	Kind         OutcomeKind
	Result       *predict.Result
	Message      string
	SubmissionID string
}

// InFlight reports whether a request is outstanding.
func (o Outcome) InFlight() bool {
	return o.Kind == OutcomeInFlight
}

func idle() Outcome {
	return Outcome{Kind: OutcomeIdle}
}

func inFlight(id string) Outcome {
	return Outcome{Kind: OutcomeInFlight, SubmissionID: id}
}

func succeeded(id string, result *predict.Result) Outcome {
	return Outcome{Kind: OutcomeSucceeded, Result: result, SubmissionID: id}
}

func failed(id, message string) Outcome {
	if message == "" {
		message = predict.DefaultErrorMessage
	}
	return Outcome{Kind: OutcomeFailed, Message: message, SubmissionID: id}
}
