package resetpassword

import (
	"encoding/json"
	"time"
)

// OutcomeKind tags the result of a submission attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeValidationFailed
	OutcomeMissingToken
	OutcomeServerError
)

func (kind OutcomeKind) String() string {
	switch kind {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationFailed:
		return "validation-failed"
	case OutcomeMissingToken:
		return "missing-token"
	case OutcomeServerError:
		return "server-error"
	default:
		return "unknown"
	}
}

func (kind OutcomeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(kind.String())
}

const (
	MessageSuccess          = "Password reset successful. You can now log in."
	MessageMissingToken     = "Invalid or missing reset token."
	MessageValidationFailed = "Password does not meet the required criteria."
	MessageServerFallback   = "Failed to reset password. Please try again."
	MessageUnexpected       = "Unexpected response from the server."
)

// Redirect is a one-shot navigation the view performs after `After` has
// elapsed.
type Redirect struct {
	Location string        `json:"location"`
	After    time.Duration `json:"after"`
}

// Outcome is what the user is shown after submitting the form. Only
// successful outcomes carry a `Redirect`.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	Message  string      `json:"message"`
	Redirect *Redirect   `json:"redirect,omitempty"`

	// Cause is the underlying error for server errors. It's for logging only
	// and is never shown to the user.
	Cause error `json:"-"`
}

func (o *Outcome) Failed() bool { return o.Kind != OutcomeSuccess }

func missingToken() Outcome {
	return Outcome{Kind: OutcomeMissingToken, Message: MessageMissingToken}
}

func validationFailed() Outcome {
	return Outcome{
		Kind:    OutcomeValidationFailed,
		Message: MessageValidationFailed,
	}
}

func serverError(message string, cause error) Outcome {
	return Outcome{Kind: OutcomeServerError, Message: message, Cause: cause}
}
