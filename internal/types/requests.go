package types

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// TurnRequest carries one candidate message for a session.
type TurnRequest struct {
	SessionID       SessionID `json:"session_id" validate:"required"`
	ParticipantName string    `json:"participant_name"`
	CandidateText   string    `json:"candidate_text" validate:"required"`
	Industry        string    `json:"industry,omitempty"`
	Domain          string    `json:"domain,omitempty"`
}

// Validate validates the TurnRequest using the validator.
func (r *TurnRequest) Validate() error {
	if err := translate(validate.Struct(r)); err != nil {
		return err
	}
	if strings.TrimSpace(r.CandidateText) == "" {
		return &ValidationError{Field: "candidate_text", Message: "must not be blank"}
	}
	return nil
}

// Scenario returns the request's scenario tags.
func (r *TurnRequest) Scenario() Scenario {
	return Scenario{Industry: r.Industry, Domain: r.Domain}.Normalize()
}

// OpenRequest asks for a session to be opened, auto-starting the case if it has no turns.
type OpenRequest struct {
	SessionID       SessionID `json:"session_id" validate:"required"`
	ParticipantName string    `json:"participant_name"`
	Industry        string    `json:"industry,omitempty"`
	Domain          string    `json:"domain,omitempty"`
}

// Validate validates the OpenRequest using the validator.
func (r *OpenRequest) Validate() error {
	return translate(validate.Struct(r))
}

// Scenario returns the request's scenario tags.
func (r *OpenRequest) Scenario() Scenario {
	return Scenario{Industry: r.Industry, Domain: r.Domain}.Normalize()
}

// EvaluateRequest asks for a finished session to be graded.
// An empty Transcript means "use the stored transcript".
type EvaluateRequest struct {
	SessionID       SessionID  `json:"session_id" validate:"required"`
	ParticipantName string     `json:"participant_name" validate:"required"`
	Transcript      Transcript `json:"transcript,omitempty" validate:"omitempty,dive"`
}

// Validate validates the EvaluateRequest using the validator.
func (r *EvaluateRequest) Validate() error {
	return translate(validate.Struct(r))
}

// RegisterRequest registers a participant and starts a new session.
type RegisterRequest struct {
	ParticipantName string `json:"participant_name" validate:"required,max=64"`
	Industry        string `json:"industry,omitempty"`
	Domain          string `json:"domain,omitempty"`
}

// Validate validates the RegisterRequest using the validator.
func (r *RegisterRequest) Validate() error {
	r.ParticipantName = strings.TrimSpace(r.ParticipantName)
	return translate(validate.Struct(r))
}

// translate converts validator output into a *ValidationError naming the first bad field.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Field:   fe.Field(),
			Message: "failed on the '" + fe.Tag() + "' rule",
		}
	}
	return &ValidationError{Message: err.Error()}
}
