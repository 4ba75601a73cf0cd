// Package scan orchestrates visibility scan runs: tier gating, cache
// resolution, run creation, prompt-by-model execution, scoring, and
// citation verification.
package scan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/localsignal/visibility-cli/internal/model"
)

// Kind discriminates pipeline failures the caller is expected to branch
// on. Transport layers map kinds to their own status codes; anything
// without a kind is an internal error.
type Kind string

const (
	KindValidation           Kind = "validation_failed"
	KindSubscriptionRequired Kind = "subscription_required"
	KindPlanUpgradeRequired  Kind = "plan_upgrade_required"
	KindNoPrompts            Kind = "no_prompts"
	KindNotFound             Kind = "not_found"
	KindAccessDenied         Kind = "access_denied"
)

// Error is a typed pipeline failure. Validation errors carry per-field
// messages; tier gating errors carry the current and required tier so
// the caller can render an upgrade prompt.
type Error struct {
	Kind         Kind               `json:"kind"`
	Message      string             `json:"message"`
	Fields       []model.FieldError `json:"fields,omitempty"`
	CurrentTier  string             `json:"current_tier,omitempty"`
	RequiredTier string             `json:"required_tier,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(msgs, "; "))
}

// KindOf extracts the Kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func validationError(fields []model.FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "profile validation failed", Fields: fields}
}

func notFoundError(what, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", what, id)}
}

func accessDeniedError(what, id string) *Error {
	return &Error{Kind: KindAccessDenied, Message: fmt.Sprintf("%s %s belongs to another user", what, id)}
}
