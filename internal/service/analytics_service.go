package service

import (
	"net/http"
)

// AnalyticsService serves the read-only analytics dashboard.
//
// The dashboard dataset is a fixed illustrative series: the product ships it
// as-is while the underlying history accumulates, and the page renders it
// without further queries. Live aggregates (citizen counts, pending
// petitions, localities) come from the CRM stats endpoint instead.
type AnalyticsService struct{}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService() *AnalyticsService {
	return &AnalyticsService{}
}

// Register wires the analytics routes onto the mux.
func (s *AnalyticsService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/analytics/dashboard", s.dashboard)
}

type monthCount struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

type statusSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Fill  string `json:"fill"`
}

type typeRadar struct {
	Subject  string `json:"subject"`
	A        int    `json:"A"`
	FullMark int    `json:"fullMark"`
}

type kpis struct {
	Satisfaction  string `json:"satisfaccion"`
	ResponseTime  string `json:"tiempoRespuesta"`
	TotalAttended int    `json:"totalAtendidos"`
}

type dashboardData struct {
	CitizensByMonth   []monthCount  `json:"citizensByMonth"`
	PetitionsByStatus []statusSlice `json:"petitionsByStatus"`
	PetitionsByType   []typeRadar   `json:"petitionsByType"`
	KPIs              kpis          `json:"kpis"`
}

func (s *AnalyticsService) dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dashboardData{
		CitizensByMonth: []monthCount{
			{Name: "Ene", Total: 45},
			{Name: "Feb", Total: 52},
			{Name: "Mar", Total: 38},
			{Name: "Abr", Total: 65},
			{Name: "May", Total: 48},
			{Name: "Jun", Total: 60},
		},
		PetitionsByStatus: []statusSlice{
			{Name: "Pendiente", Value: 12, Fill: "#f59e0b"},
			{Name: "En Gestión", Value: 25, Fill: "#3b82f6"},
			{Name: "Cumplido", Value: 63, Fill: "#22c55e"},
		},
		PetitionsByType: []typeRadar{
			{Subject: "Vías", A: 120, FullMark: 150},
			{Subject: "Seguridad", A: 98, FullMark: 150},
			{Subject: "Salud", A: 86, FullMark: 150},
			{Subject: "Educación", A: 99, FullMark: 150},
			{Subject: "Cultura", A: 85, FullMark: 150},
			{Subject: "Deporte", A: 65, FullMark: 150},
		},
		KPIs: kpis{
			Satisfaction:  "94%",
			ResponseTime:  "2.5 días",
			TotalAttended: 350,
		},
	})
}
