package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeGenerator returns a canned response or error.
type fakeGenerator struct {
	response string
	err      error
}

func (f fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}

type minutesShape struct {
	Minutes     string   `json:"acta"`
	Commitments []string `json:"compromisos"`
}

func TestExtractParsesBareJSON(t *testing.T) {
	gen := fakeGenerator{response: `{"acta": "Acta formal.", "compromisos": ["Comprar mangueras"]}`}

	got, err := Extract[minutesShape](context.Background(), gen, "prompt", nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.Minutes != "Acta formal." {
		t.Errorf("unexpected minutes: %q", got.Minutes)
	}
	if len(got.Commitments) != 1 || got.Commitments[0] != "Comprar mangueras" {
		t.Errorf("unexpected commitments: %v", got.Commitments)
	}
}

func TestExtractFencedEqualsUnfenced(t *testing.T) {
	payload := `{"acta": "Texto del acta", "compromisos": ["Uno", "Dos"]}`
	fenced := "```json\n" + payload + "\n```"

	plain, err := Extract[minutesShape](context.Background(), fakeGenerator{response: payload}, "p", nil)
	if err != nil {
		t.Fatalf("unfenced Extract failed: %v", err)
	}
	wrapped, err := Extract[minutesShape](context.Background(), fakeGenerator{response: fenced}, "p", nil)
	if err != nil {
		t.Fatalf("fenced Extract failed: %v", err)
	}

	if plain.Minutes != wrapped.Minutes {
		t.Errorf("minutes differ: %q vs %q", plain.Minutes, wrapped.Minutes)
	}
	if len(plain.Commitments) != len(wrapped.Commitments) {
		t.Fatalf("commitment counts differ: %d vs %d", len(plain.Commitments), len(wrapped.Commitments))
	}
	for i := range plain.Commitments {
		if plain.Commitments[i] != wrapped.Commitments[i] {
			t.Errorf("commitment %d differs: %q vs %q", i, plain.Commitments[i], wrapped.Commitments[i])
		}
	}
}

func TestCleanFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
		{"multiple fences", "```json\n[1]\n``` ```json\n\n```", "[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFences(tt.in); got != tt.want {
				t.Errorf("CleanFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractNotJSONIsMalformed(t *testing.T) {
	gen := fakeGenerator{response: "not json"}

	_, err := Extract[minutesShape](context.Background(), gen, "p", nil)
	if err == nil {
		t.Fatal("expected error for non-JSON response")
	}

	var malformed *MalformedJSONError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedJSONError, got %T: %v", err, err)
	}
	if malformed.Raw != "not json" {
		t.Errorf("Raw = %q, want the offending text", malformed.Raw)
	}
}

func TestExtractRateLimitedIsDistinguished(t *testing.T) {
	rateLimited := fakeGenerator{err: fmt.Errorf("%w: quota exceeded", ErrRateLimited)}
	_, err := Extract[minutesShape](context.Background(), rateLimited, "p", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	generic := fakeGenerator{err: errors.New("connection reset")}
	_, err = Extract[minutesShape](context.Background(), generic, "p", nil)
	if errors.Is(err, ErrRateLimited) {
		t.Fatal("generic failure must not look rate limited")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T: %v", err, err)
	}
}

func TestExtractEmptyResponse(t *testing.T) {
	for _, response := range []string{"", "   \n", "```json\n```"} {
		_, err := Extract[minutesShape](context.Background(), fakeGenerator{response: response}, "p", nil)
		if !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("response %q: expected ErrEmptyResponse, got %v", response, err)
		}
	}
}

func TestExtractRunsValidation(t *testing.T) {
	gen := fakeGenerator{response: `{"acta": "", "compromisos": []}`}
	wantErr := errors.New("empty minutes")

	_, err := Extract(context.Background(), gen, "p", func(m minutesShape) error {
		if m.Minutes == "" {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDisabledGenerator(t *testing.T) {
	_, err := Extract[minutesShape](context.Background(), Disabled{}, "p", nil)
	var genErr *GenerationError
	if !errors.As(err, &genErr) || !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected GenerationError wrapping ErrDisabled, got %v", err)
	}
}
