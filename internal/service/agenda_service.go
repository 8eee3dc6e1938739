package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/governa/governa/internal/ai"
	"github.com/governa/governa/internal/models"
	"github.com/governa/governa/internal/storage"
	"github.com/governa/governa/internal/viewcache"
)

// upcomingMeetingsLimit bounds the agenda list.
const upcomingMeetingsLimit = 100

// AgendaService implements the meetings module: scheduling, notes, task
// checklists, AI minutes generation and the daily moral-support briefing.
type AgendaService struct {
	store storage.Store
	gen   ai.Generator
	cache *viewcache.Cache

	// loc is the fixed-offset zone meeting wall-clock times are composed
	// in, so stored instants never depend on the server's local zone.
	loc *time.Location
}

// NewAgendaService creates a new AgendaService.
func NewAgendaService(store storage.Store, gen ai.Generator, cache *viewcache.Cache, loc *time.Location) *AgendaService {
	return &AgendaService{store: store, gen: gen, cache: cache, loc: loc}
}

// Register wires the agenda routes onto the mux.
func (s *AgendaService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/agenda/meetings", s.listMeetings)
	mux.HandleFunc("POST /api/agenda/meetings", s.createMeeting)
	mux.HandleFunc("POST /api/agenda/meetings/{id}", s.updateMeeting)
	mux.HandleFunc("DELETE /api/agenda/meetings/{id}", s.deleteMeeting)
	mux.HandleFunc("POST /api/agenda/meetings/{id}/notes", s.updateNotes)
	mux.HandleFunc("POST /api/agenda/meetings/{id}/minutes", s.generateMinutes)
	mux.HandleFunc("GET /api/agenda/support", s.moralSupport)
	mux.HandleFunc("POST /api/agenda/meetings/{id}/tasks", s.addTask)
	mux.HandleFunc("POST /api/agenda/tasks/{id}/done", s.setTaskDone)
	mux.HandleFunc("DELETE /api/agenda/tasks/{id}", s.deleteTask)
}

// scheduleAt composes the submitted date and time fields into an instant at
// the configured fixed offset. fecha is YYYY-MM-DD, hora is HH:MM.
func (s *AgendaService) scheduleAt(fecha, hora string) (int64, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", fecha+" "+hora, s.loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date/time %q %q: %w", fecha, hora, err)
	}
	return t.Unix(), nil
}

// listMeetings serves the upcoming agenda from the start of the current day,
// ascending, through the view cache.
func (s *AgendaService) listMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := s.cache.GetOr(viewcache.ViewAgenda+"/meetings", func() (any, error) {
		from := startOfDay(time.Now(), s.loc)
		return s.store.ListMeetingsFrom(r.Context(), from.Unix(), upcomingMeetingsLimit)
	})
	if err != nil {
		slog.Error("ListMeetings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error de base de datos. Intente nuevamente.")
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (s *AgendaService) createMeeting(w http.ResponseWriter, r *http.Request) {
	titulo := r.FormValue("titulo")
	fecha := r.FormValue("fecha")
	hora := r.FormValue("hora")

	slog.Info("CreateMeeting request", "title", titulo, "date", fecha, "time", hora)

	if titulo == "" || fecha == "" || hora == "" {
		writeError(w, http.StatusBadRequest, "Todos los campos son obligatorios")
		return
	}

	scheduledAt, err := s.scheduleAt(fecha, hora)
	if err != nil {
		slog.Warn("CreateMeeting rejected", "error", err)
		writeError(w, http.StatusBadRequest, "Todos los campos son obligatorios")
		return
	}

	meeting := &models.Meeting{Title: titulo, ScheduledAt: scheduledAt}
	if err := s.store.CreateMeeting(r.Context(), meeting); err != nil {
		slog.Error("CreateMeeting failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error al agendar la reunión.")
		return
	}

	s.cache.Invalidate(viewcache.ViewAgenda)
	slog.Info("Meeting created", "meeting_id", meeting.ID)
	writeSuccess(w, "Reunión agendada exitosamente.")
}

func (s *AgendaService) updateMeeting(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	titulo := r.FormValue("titulo")
	fecha := r.FormValue("fecha")
	hora := r.FormValue("hora")

	if id == "" || titulo == "" || fecha == "" || hora == "" {
		writeError(w, http.StatusBadRequest, "Todos los campos son obligatorios")
		return
	}

	scheduledAt, err := s.scheduleAt(fecha, hora)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Todos los campos son obligatorios")
		return
	}

	if err := s.store.UpdateMeeting(r.Context(), id, titulo, scheduledAt); err != nil {
		slog.Error("UpdateMeeting failed", "meeting_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al actualizar la reunión.")
		return
	}

	s.cache.Invalidate(viewcache.ViewAgenda)
	writeSuccess(w, "Reunión actualizada exitosamente.")
}

func (s *AgendaService) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteMeeting(r.Context(), id); err != nil {
		slog.Error("DeleteMeeting failed", "meeting_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al eliminar la reunión.")
		return
	}

	s.cache.Invalidate(viewcache.ViewAgenda)
	writeSuccess(w, "Reunión eliminada correctamente.")
}

func (s *AgendaService) updateNotes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	notes := r.FormValue("notas")

	if err := s.store.UpdateMeetingNotes(r.Context(), id, notes); err != nil {
		slog.Error("UpdateNotes failed", "meeting_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al guardar las notas.")
		return
	}

	s.cache.Invalidate(viewcache.ViewAgenda)
	writeSuccess(w, "Notas guardadas.")
}

// minutesPrompt asks for a formal acta plus commitments extracted from the
// meeting's raw notes, as a bare JSON object.
func minutesPrompt(title, notes string) string {
	return fmt.Sprintf(`Genera un Acta de Reunión formal y una lista de Compromisos basada en estas notas crudas de la reunión "%s":

"%s"

Devuelve un objeto JSON con:
{
    "acta": "Texto redactado formalmente del acta...",
    "compromisos": ["Compromiso 1", "Compromiso 2", ...]
}`, title, notes)
}

// generateMinutes runs the extraction pipeline over a meeting's stored notes
// and persists the resulting acta and commitments. Absent notes are a
// precondition failure, not a pipeline error.
func (s *AgendaService) generateMinutes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	slog.Info("GenerateMinutes request", "meeting_id", id)

	meeting, err := s.store.GetMeeting(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No hay notas para procesar.")
		return
	}
	if strings.TrimSpace(meeting.Notes) == "" {
		writeError(w, http.StatusBadRequest, "No hay notas para procesar.")
		return
	}

	minutes, err := ai.Extract(r.Context(), s.gen, minutesPrompt(meeting.Title, meeting.Notes), models.MeetingMinutes.Validate)
	if err != nil {
		slog.Error("GenerateMinutes pipeline failed", "meeting_id", id, "error", err)
		writeError(w, http.StatusBadGateway, minutesFailureMessage(err))
		return
	}

	if err := s.store.SetMeetingMinutes(r.Context(), id, minutes.Minutes, minutes.Commitments); err != nil {
		slog.Error("GenerateMinutes persist failed", "meeting_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al generar el acta.")
		return
	}

	s.cache.Invalidate(viewcache.ViewAgenda)
	slog.Info("Minutes generated", "meeting_id", id, "commitments", len(minutes.Commitments))
	writeSuccess(w, "Acta generada exitosamente.")
}

// minutesFailureMessage maps pipeline errors to user messages. A rate limit
// advises retrying; everything else reads as a system error.
func minutesFailureMessage(err error) string {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		return "El sistema de IA está saturado. Por favor, intenta de nuevo en 1 minuto."
	case errors.Is(err, ai.ErrEmptyResponse):
		return "No se pudo generar el acta."
	default:
		return "Error al generar el acta."
	}
}

// supportPrompt asks the model for 2-3 brief strategic tips for the day's
// agenda, as a bare JSON array.
func supportPrompt(meetings []*models.Meeting, loc *time.Location) string {
	var list strings.Builder
	for _, m := range meetings {
		fmt.Fprintf(&list, "- %s a las %s\n", m.Title, time.Unix(m.ScheduledAt, 0).In(loc).Format("3:04 PM"))
	}
	return fmt.Sprintf(`Eres un asesor político y personal experto para un gobernante. Basado en la siguiente agenda del día:
%s
Genera 2 o 3 consejos breves, estratégicos o de "ayuda moral" para afrontar el día.
Pueden ser recordatorios de tacto político, preparación mental, o puntos clave a no olvidar.

Devuelve la respuesta en formato JSON puramente, un array de objetos con esta estructura:
[
    { "tipo": "consejo" | "advertencia" | "estrategia", "mensaje": "texto del consejo", "prioridad": "alta" | "media" | "baja" }
]`, list.String())
}

// moralSupport serves the daily briefing. With no meetings today the
// pipeline is bypassed entirely in favor of a single static advisory; a
// pipeline failure degrades to a fallback advisory whose text distinguishes
// a rate limit from any other failure.
func (s *AgendaService) moralSupport(w http.ResponseWriter, r *http.Request) {
	today := startOfDay(time.Now(), s.loc)
	meetings, err := s.store.ListMeetingsBetween(r.Context(), today.Unix(), today.Add(24*time.Hour).Unix())
	if err != nil {
		slog.Error("MoralSupport query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error de base de datos. Intente nuevamente.")
		return
	}

	if len(meetings) == 0 {
		writeJSON(w, http.StatusOK, []models.Advice{{
			Kind:     models.AdviceGeneral,
			Message:  "Hoy no tienes reuniones programadas. Es un buen día para avanzar en tareas administrativas pendientes o revisar la planificación semanal.",
			Priority: models.PriorityLow,
		}})
		return
	}

	advice, err := ai.Extract(r.Context(), s.gen, supportPrompt(meetings, s.loc), validateAdvice)
	if err != nil {
		slog.Warn("MoralSupport pipeline failed", "error", err)
		writeJSON(w, http.StatusOK, []models.Advice{supportFallback(err)})
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

func validateAdvice(advice []models.Advice) error {
	if len(advice) == 0 {
		return errors.New("no advice entries returned")
	}
	for _, a := range advice {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// supportFallback is the static advisory served when the pipeline fails.
func supportFallback(err error) models.Advice {
	message := "El sistema de inteligencia está calibrando sus sensores. Recuerda mantener la calma y escuchar activamente en todas tus reuniones."
	if errors.Is(err, ai.ErrRateLimited) {
		message = "La IA está descansando un momento (Límite de cuota alcanzado). Intenta más tarde."
	}
	return models.Advice{
		Kind:     models.AdviceError,
		Message:  message,
		Priority: models.PriorityMedium,
	}
}

func (s *AgendaService) addTask(w http.ResponseWriter, r *http.Request) {
	task := &models.Task{
		MeetingID:   r.PathValue("id"),
		Description: r.FormValue("descripcion"),
	}

	if task.Description == "" {
		writeError(w, http.StatusBadRequest, "La descripción es requerida")
		return
	}

	if err := s.store.AddTask(r.Context(), task); err != nil {
		slog.Error("AddTask failed", "meeting_id", task.MeetingID, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al crear la tarea.")
		return
	}

	s.cache.Invalidate(viewcache.ViewAgenda)
	writeSuccess(w, "Tarea agregada.")
}

func (s *AgendaService) setTaskDone(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	done := r.FormValue("done") == "true"

	if err := s.store.SetTaskDone(r.Context(), id, done); err != nil {
		slog.Error("SetTaskDone failed", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al actualizar la tarea.")
		return
	}

	s.cache.Invalidate(viewcache.ViewAgenda)
	writeSuccess(w, "Tarea actualizada.")
}

func (s *AgendaService) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		slog.Error("DeleteTask failed", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al eliminar la tarea.")
		return
	}

	s.cache.Invalidate(viewcache.ViewAgenda)
	writeSuccess(w, "Tarea eliminada.")
}

// startOfDay returns midnight of t's day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
