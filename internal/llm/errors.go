package llm

import (
	"fmt"
	"strings"
)

// LimitError indicates the request exceeded the provider's input or token
// limits. It is the one inference failure callers must treat as fatal rather
// than degrade to a placeholder, so it gets its own type; everything else is
// returned as a plain wrapped error.
type LimitError struct {
	Model string
	Cause error
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("inference request exceeded limits for model %s: %v", e.Model, e.Cause)
}

func (e *LimitError) Unwrap() error {
	return e.Cause
}

// limitKeywords are the provider message fragments that identify a limit
// condition. Gemini does not expose a structured code for this, so the
// classification happens here, once, at the client boundary.
var limitKeywords = []string{
	"token count",
	"exceeds the maximum",
	"request payload size",
	"input too long",
	"RESOURCE_EXHAUSTED",
}

// classifyError wraps provider errors, promoting limit conditions to LimitError.
func classifyError(model string, err error) error {
	msg := err.Error()
	for _, kw := range limitKeywords {
		if strings.Contains(msg, kw) {
			return &LimitError{Model: model, Cause: err}
		}
	}
	return fmt.Errorf("failed to generate content: %w", err)
}
