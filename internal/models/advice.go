package models

import (
	"errors"
	"strings"
)

// Advice kinds. The generative model is instructed to answer with one of
// consejo/advertencia/estrategia; general and error are produced locally for
// the no-meetings short-circuit and the failure fallbacks.
const (
	AdviceTip      = "consejo"
	AdviceWarning  = "advertencia"
	AdviceStrategy = "estrategia"
	AdviceGeneral  = "general"
	AdviceError    = "error"
)

// Advice priorities.
const (
	PriorityHigh   = "alta"
	PriorityMedium = "media"
	PriorityLow    = "baja"
)

// Advice is one entry of the daily moral-support briefing.
type Advice struct {
	Kind     string `json:"tipo"`
	Message  string `json:"mensaje"`
	Priority string `json:"prioridad"`
}

// Validate checks that the model returned a usable advice entry.
func (a Advice) Validate() error {
	switch a.Kind {
	case AdviceTip, AdviceWarning, AdviceStrategy, AdviceGeneral:
	default:
		return errors.New("unknown advice kind: " + a.Kind)
	}
	switch a.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return errors.New("unknown advice priority: " + a.Priority)
	}
	if strings.TrimSpace(a.Message) == "" {
		return errors.New("empty advice message")
	}
	return nil
}

// MeetingMinutes is the artifact extracted from a meeting's stored notes.
type MeetingMinutes struct {
	Minutes     string   `json:"acta"`
	Commitments []string `json:"compromisos"`
}

// Validate checks the extracted minutes carry usable content.
func (m MeetingMinutes) Validate() error {
	if strings.TrimSpace(m.Minutes) == "" {
		return errors.New("empty minutes text")
	}
	return nil
}

// QuickMinutes is the artifact extracted from freshly submitted quick notes,
// before any meeting exists for them.
type QuickMinutes struct {
	Title       string   `json:"titulo"`
	Minutes     string   `json:"acta"`
	Commitments []string `json:"compromisos"`
}

// Validate checks the extracted quick minutes carry usable content.
func (q QuickMinutes) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return errors.New("empty generated title")
	}
	if strings.TrimSpace(q.Minutes) == "" {
		return errors.New("empty minutes text")
	}
	return nil
}
