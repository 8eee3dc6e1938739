package service

import (
	"net/http"
	"testing"
)

func TestDashboardShape(t *testing.T) {
	server, _ := newTestEnv(t, &fakeGenerator{})

	var data struct {
		CitizensByMonth []struct {
			Name  string `json:"name"`
			Total int    `json:"total"`
		} `json:"citizensByMonth"`
		PetitionsByStatus []struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
			Fill  string `json:"fill"`
		} `json:"petitionsByStatus"`
		PetitionsByType []struct {
			Subject string `json:"subject"`
		} `json:"petitionsByType"`
		KPIs struct {
			Satisfaction string `json:"satisfaccion"`
			ResponseTime string `json:"tiempoRespuesta"`
			Total        int    `json:"totalAtendidos"`
		} `json:"kpis"`
	}
	if status := getJSON(t, server.URL, "/api/analytics/dashboard", &data); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}

	if len(data.CitizensByMonth) != 6 || data.CitizensByMonth[0].Name != "Ene" {
		t.Errorf("citizensByMonth = %+v", data.CitizensByMonth)
	}
	if len(data.PetitionsByStatus) != 3 {
		t.Fatalf("petitionsByStatus has %d slices", len(data.PetitionsByStatus))
	}
	for _, slice := range data.PetitionsByStatus {
		if slice.Fill == "" {
			t.Errorf("slice %q has no fill color", slice.Name)
		}
	}
	if len(data.PetitionsByType) != 6 {
		t.Errorf("petitionsByType has %d subjects", len(data.PetitionsByType))
	}
	if data.KPIs.Satisfaction == "" || data.KPIs.Total == 0 {
		t.Errorf("kpis = %+v", data.KPIs)
	}
}
