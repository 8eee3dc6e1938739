// Package ai provides the generative-text boundary and the
// structured-extraction pipeline built on top of it.
//
// The external collaborator is modeled as a Generator: one prompt string in,
// one completion string out. Everything Governa asks of the model demands a
// JSON-shaped answer; Extract turns such an answer into a typed, validated
// value with a failure taxonomy the services can map to user messages.
package ai

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRateLimited reports that the collaborator refused the request with
	// a quota/rate-limit condition (HTTP 429). Callers tell the user to try
	// again later instead of reporting a hard error.
	ErrRateLimited = errors.New("generador saturado")

	// ErrEmptyResponse reports that the collaborator answered with nothing
	// usable.
	ErrEmptyResponse = errors.New("respuesta vacía del generador")

	// ErrDisabled reports that no generator is configured (missing API key).
	ErrDisabled = errors.New("generador de IA no configurado")
)

// Generator produces a free-text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationError wraps any collaborator failure that is neither a rate
// limit nor an empty answer.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// MalformedJSONError reports that the cleaned model response did not parse
// as the expected JSON shape. Raw carries the offending text for diagnostics;
// it is never silently dropped.
type MalformedJSONError struct {
	Raw string
	Err error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON in model response: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

// Disabled is a Generator that always fails with ErrDisabled. Used when the
// process starts without an API key so every surface degrades uniformly.
type Disabled struct{}

// Generate always returns ErrDisabled.
func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrDisabled
}
