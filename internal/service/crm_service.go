package service

import (
	"log/slog"
	"net/http"

	"github.com/governa/governa/internal/models"
	"github.com/governa/governa/internal/storage"
	"github.com/governa/governa/internal/viewcache"
)

// recentCitizensLimit bounds the CRM landing list.
const recentCitizensLimit = 20

// topLocalitiesLimit bounds the per-locality stats.
const topLocalitiesLimit = 5

// CRMService implements the citizen-relations actions: registration with an
// initial petition, listing, updates, deletion and aggregate stats.
type CRMService struct {
	store storage.Store
	cache *viewcache.Cache
}

// NewCRMService creates a new CRMService with the given storage backend.
func NewCRMService(store storage.Store, cache *viewcache.Cache) *CRMService {
	return &CRMService{store: store, cache: cache}
}

// Register wires the CRM routes onto the mux.
func (s *CRMService) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/crm/citizens", s.registerCitizen)
	mux.HandleFunc("GET /api/crm/citizens", s.listCitizens)
	mux.HandleFunc("POST /api/crm/citizens/{id}", s.updateCitizen)
	mux.HandleFunc("DELETE /api/crm/citizens/{id}", s.deleteCitizen)
	mux.HandleFunc("GET /api/crm/citizens/{id}/petitions", s.listPetitions)
	mux.HandleFunc("POST /api/crm/petitions/{id}/status", s.updatePetitionStatus)
	mux.HandleFunc("GET /api/crm/stats", s.stats)
}

// validateRegistration performs the schema validation with field-level
// messages. The petition subject travels with the citizen form because
// registration always files an initial petition.
func validateRegistration(nationalID, fullName, locality, subject string) map[string]string {
	fields := make(map[string]string)
	if len(nationalID) < 3 {
		fields["cedula"] = "La cédula es requerida"
	}
	if fullName == "" {
		fields["nombres"] = "El nombre es requerido"
	}
	if locality == "" {
		fields["vereda"] = "La vereda es requerida"
	}
	if subject == "" {
		fields["asunto"] = "El asunto inicial es requerido"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// registerCitizen upserts the citizen by cédula and files the petition, both
// in one transaction at the storage layer.
func (s *CRMService) registerCitizen(w http.ResponseWriter, r *http.Request) {
	citizen := &models.Citizen{
		NationalID: r.FormValue("cedula"),
		FullName:   r.FormValue("nombres"),
		Locality:   r.FormValue("vereda"),
		Phone:      r.FormValue("telefono"),
	}
	subject := r.FormValue("asunto")

	slog.Info("RegisterCitizen request", "national_id", citizen.NationalID)

	if fields := validateRegistration(citizen.NationalID, citizen.FullName, citizen.Locality, subject); fields != nil {
		writeFieldErrors(w, "Datos inválidos. Por favor revise el formulario.", fields)
		return
	}

	citizenID, err := s.store.RegisterPetition(r.Context(), citizen, subject)
	if err != nil {
		slog.Error("RegisterCitizen failed", "national_id", citizen.NationalID, "error", err)
		writeError(w, http.StatusInternalServerError, "Error de base de datos. Intente nuevamente.")
		return
	}

	s.cache.Invalidate(viewcache.ViewCRM)
	slog.Info("Citizen registered", "citizen_id", citizenID)
	writeSuccess(w, "Ciudadano y petición registrados exitosamente.")
}

// listCitizens returns the most recently updated citizens, each with its
// latest petition. Served through the view cache.
func (s *CRMService) listCitizens(w http.ResponseWriter, r *http.Request) {
	citizens, err := s.cache.GetOr(viewcache.ViewCRM+"/citizens", func() (any, error) {
		return s.store.ListRecentCitizens(r.Context(), recentCitizensLimit)
	})
	if err != nil {
		slog.Error("ListCitizens failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error de base de datos. Intente nuevamente.")
		return
	}
	writeJSON(w, http.StatusOK, citizens)
}

func (s *CRMService) updateCitizen(w http.ResponseWriter, r *http.Request) {
	citizen := &models.Citizen{
		ID:       r.PathValue("id"),
		FullName: r.FormValue("nombres"),
		Locality: r.FormValue("vereda"),
		Phone:    r.FormValue("telefono"),
	}

	if citizen.ID == "" || citizen.FullName == "" || citizen.Locality == "" {
		writeError(w, http.StatusBadRequest, "Faltan datos requeridos")
		return
	}

	if err := s.store.UpdateCitizen(r.Context(), citizen); err != nil {
		slog.Error("UpdateCitizen failed", "citizen_id", citizen.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al actualizar ciudadano")
		return
	}

	s.cache.Invalidate(viewcache.ViewCRM)
	writeSuccess(w, "Ciudadano actualizado correctamente")
}

// deleteCitizen removes the citizen. Petitions stay behind on purpose; see
// the storage schema.
func (s *CRMService) deleteCitizen(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID requerido")
		return
	}

	if err := s.store.DeleteCitizen(r.Context(), id); err != nil {
		slog.Error("DeleteCitizen failed", "citizen_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al eliminar ciudadano")
		return
	}

	s.cache.Invalidate(viewcache.ViewCRM)
	writeSuccess(w, "Ciudadano eliminado correctamente")
}

func (s *CRMService) listPetitions(w http.ResponseWriter, r *http.Request) {
	petitions, err := s.store.ListPetitionsByCitizen(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("ListPetitions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error de base de datos. Intente nuevamente.")
		return
	}
	writeJSON(w, http.StatusOK, petitions)
}

func (s *CRMService) updatePetitionStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status := models.PetitionStatus(r.FormValue("estado"))

	if id == "" || !status.Valid() {
		writeError(w, http.StatusBadRequest, "Faltan datos requeridos")
		return
	}

	if err := s.store.UpdatePetitionStatus(r.Context(), id, status); err != nil {
		slog.Error("UpdatePetitionStatus failed", "petition_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error al actualizar la petición")
		return
	}

	s.cache.Invalidate(viewcache.ViewCRM)
	writeSuccess(w, "Petición actualizada correctamente")
}

// crmStats is the CRM overview aggregate.
type crmStats struct {
	TotalCitizens    int                     `json:"totalCitizens"`
	PendingPetitions int                     `json:"pendingPetitions"`
	ByLocality       []storage.LocalityCount `json:"byLocality"`
}

// stats serves citizen/petition counts and the top localities, cached.
func (s *CRMService) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.GetOr(viewcache.ViewCRM+"/stats", func() (any, error) {
		total, err := s.store.CountCitizens(r.Context())
		if err != nil {
			return nil, err
		}
		pending, err := s.store.CountPetitionsByStatus(r.Context(), models.PetitionPending)
		if err != nil {
			return nil, err
		}
		byLocality, err := s.store.CitizensByLocality(r.Context(), topLocalitiesLimit)
		if err != nil {
			return nil, err
		}
		return crmStats{
			TotalCitizens:    total,
			PendingPetitions: pending,
			ByLocality:       byLocality,
		}, nil
	})
	if err != nil {
		slog.Error("Stats failed", "error", err)
		// Degrade to zeros rather than breaking the dashboard page.
		writeJSON(w, http.StatusOK, crmStats{})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
