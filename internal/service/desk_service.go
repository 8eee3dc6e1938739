package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/governa/governa/internal/ai"
	"github.com/governa/governa/internal/models"
	"github.com/governa/governa/internal/storage"
	"github.com/governa/governa/internal/viewcache"
)

// DeskService implements the "magic desk": freshly typed quick notes are
// converted into a titled formal acta with commitments, and persisted as a
// new meeting that keeps the original notes verbatim.
type DeskService struct {
	store storage.Store
	gen   ai.Generator
	cache *viewcache.Cache
	loc   *time.Location
}

// NewDeskService creates a new DeskService.
func NewDeskService(store storage.Store, gen ai.Generator, cache *viewcache.Cache, loc *time.Location) *DeskService {
	return &DeskService{store: store, gen: gen, cache: cache, loc: loc}
}

// Register wires the desk routes onto the mux.
func (s *DeskService) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/desk/notes", s.processNotes)
}

// quickNotesPrompt asks for a title, formal acta and commitments extracted
// from informal notes, as a bare JSON object.
func quickNotesPrompt(notes string) string {
	return fmt.Sprintf(`Como Asistente de Gobierno experto, tu tarea es convertir estas notas informales o manuscritas en un Acta de Reunión formal y profesional.

NOTAS ORIGINALES:
"%s"

INSTRUCCIONES:
1. Genera un título adecuado para la reunión basado en el contenido.
2. Redacta un resumen ejecutivo claro de lo discutido.
3. Extrae una lista de "Compromisos" o tareas pendientes, asignando responsables si se mencionan.
4. El tono debe ser formal, gubernamental y cortés.
5. Devuelve la respuesta SOLAMENTE en formato JSON con la siguiente estructura (sin bloques de código extra):
{
  "titulo": "Título de la Reunión",
  "acta": "Texto completo del acta...",
  "compromisos": ["Compromiso 1", "Compromiso 2"]
}`, notes)
}

// deskResult is the artifact returned to the editor, including the ID of the
// meeting the notes were archived under.
type deskResult struct {
	models.QuickMinutes
	MeetingID string `json:"meetingId"`
}

// processNotes runs the extraction pipeline over submitted notes and records
// the result as a meeting scheduled at the submission instant. The raw notes
// are stored verbatim; the generated acta never replaces them.
func (s *DeskService) processNotes(w http.ResponseWriter, r *http.Request) {
	notes := r.FormValue("notes")
	if notes == "" {
		writeError(w, http.StatusBadRequest, "No se proporcionaron notas.")
		return
	}

	slog.Info("ProcessNotes request", "notes_len", len(notes))

	quick, err := ai.Extract(r.Context(), s.gen, quickNotesPrompt(notes), models.QuickMinutes.Validate)
	if err != nil {
		slog.Error("ProcessNotes pipeline failed", "error", err)
		writeError(w, http.StatusBadGateway, deskFailureMessage(err))
		return
	}

	meeting := &models.Meeting{
		Title:       quick.Title,
		ScheduledAt: time.Now().In(s.loc).Unix(),
		Notes:       notes,
		Minutes:     quick.Minutes,
		Commitments: quick.Commitments,
	}
	if err := s.store.CreateMeeting(r.Context(), meeting); err != nil {
		slog.Error("ProcessNotes persist failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error al procesar las notas.")
		return
	}

	s.cache.Invalidate(viewcache.ViewAgenda)
	slog.Info("Quick minutes created", "meeting_id", meeting.ID, "commitments", len(quick.Commitments))
	writeJSON(w, http.StatusOK, deskResult{QuickMinutes: quick, MeetingID: meeting.ID})
}

// deskFailureMessage maps pipeline errors to user messages.
func deskFailureMessage(err error) string {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		return "El sistema de IA está saturado. Por favor, intenta de nuevo en 1 minuto."
	case errors.Is(err, ai.ErrEmptyResponse):
		return "No se obtuvo respuesta de la IA."
	default:
		return "Error al procesar las notas."
	}
}
