package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// CleanFences strips Markdown code-fence markers from a model response:
// every "```json" opener, every bare "```", and surrounding whitespace.
// A response without fences passes through unchanged apart from trimming.
func CleanFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Extract runs the structured-extraction pipeline: generate a completion for
// prompt, strip code fences, parse the result as JSON into T, and validate
// its shape with validate (which may be nil).
//
// Failure taxonomy:
//   - ErrRateLimited when the collaborator reports a quota condition
//   - *GenerationError for any other collaborator failure
//   - ErrEmptyResponse for a blank completion
//   - *MalformedJSONError (carrying the cleaned text) for a parse failure
//   - validate's error verbatim for a shape mismatch
//
// Extract performs a single attempt and has no side effects; persisting the
// result is the caller's decision.
func Extract[T any](ctx context.Context, gen Generator, prompt string, validate func(T) error) (T, error) {
	var zero T

	raw, err := gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return zero, err
		}
		return zero, &GenerationError{Err: err}
	}

	cleaned := CleanFences(raw)
	if cleaned == "" {
		return zero, ErrEmptyResponse
	}

	var value T
	if err := json.Unmarshal([]byte(cleaned), &value); err != nil {
		return zero, &MalformedJSONError{Raw: cleaned, Err: err}
	}

	if validate != nil {
		if err := validate(value); err != nil {
			return zero, err
		}
	}
	return value, nil
}
