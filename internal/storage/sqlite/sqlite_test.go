package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/governa/governa/internal/models"
	"github.com/governa/governa/internal/storage"
)

// newTestStore creates a store over a temp database file.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "governa-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpFile.Name())
	})
	return store
}

func TestRegisterPetitionCreatesCitizenAndPetition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	citizen := &models.Citizen{
		NationalID: "1098765432",
		FullName:   "María Rodríguez",
		Locality:   "El Placer",
		Phone:      "3001234567",
	}
	id, err := store.RegisterPetition(ctx, citizen, "Arreglo de la vía")
	if err != nil {
		t.Fatalf("RegisterPetition failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a citizen ID")
	}

	petitions, err := store.ListPetitionsByCitizen(ctx, id)
	if err != nil {
		t.Fatalf("ListPetitionsByCitizen failed: %v", err)
	}
	if len(petitions) != 1 {
		t.Fatalf("expected 1 petition, got %d", len(petitions))
	}
	if petitions[0].Subject != "Arreglo de la vía" {
		t.Errorf("unexpected subject: %q", petitions[0].Subject)
	}
	if petitions[0].Status != models.PetitionPending {
		t.Errorf("new petition status = %q, want PENDING", petitions[0].Status)
	}
}

func TestRegisterPetitionUpsertIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	citizen := &models.Citizen{
		NationalID: "1098765432",
		FullName:   "María Rodríguez",
		Locality:   "El Placer",
		Phone:      "3001234567",
	}

	first, err := store.RegisterPetition(ctx, citizen, "Primera petición")
	if err != nil {
		t.Fatalf("first RegisterPetition failed: %v", err)
	}
	second, err := store.RegisterPetition(ctx, &models.Citizen{
		NationalID: "1098765432",
		FullName:   "María Rodríguez",
		Locality:   "El Placer",
		Phone:      "3001234567",
	}, "Segunda petición")
	if err != nil {
		t.Fatalf("second RegisterPetition failed: %v", err)
	}

	if first != second {
		t.Errorf("upsert produced two citizen IDs: %s vs %s", first, second)
	}

	total, err := store.CountCitizens(ctx)
	if err != nil {
		t.Fatalf("CountCitizens failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected exactly 1 citizen, got %d", total)
	}

	got, err := store.GetCitizenByNationalID(ctx, "1098765432")
	if err != nil {
		t.Fatalf("GetCitizenByNationalID failed: %v", err)
	}
	if got.FullName != "María Rodríguez" || got.Locality != "El Placer" || got.Phone != "3001234567" {
		t.Errorf("citizen attributes changed on idempotent upsert: %+v", got)
	}

	petitions, _ := store.ListPetitionsByCitizen(ctx, first)
	if len(petitions) != 2 {
		t.Errorf("expected petitions to accumulate, got %d", len(petitions))
	}
}

func TestRegisterPetitionUpsertKeepsExistingFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.RegisterPetition(ctx, &models.Citizen{
		NationalID: "555",
		FullName:   "Pedro Pérez",
		Locality:   "La Esmeralda",
		Phone:      "3110000000",
	}, "Asunto inicial"); err != nil {
		t.Fatalf("RegisterPetition failed: %v", err)
	}

	// Empty phone must not wipe the stored one.
	if _, err := store.RegisterPetition(ctx, &models.Citizen{
		NationalID: "555",
		FullName:   "Pedro Pérez Gómez",
		Locality:   "La Esmeralda",
	}, "Otro asunto"); err != nil {
		t.Fatalf("second RegisterPetition failed: %v", err)
	}

	got, err := store.GetCitizenByNationalID(ctx, "555")
	if err != nil {
		t.Fatalf("GetCitizenByNationalID failed: %v", err)
	}
	if got.FullName != "Pedro Pérez Gómez" {
		t.Errorf("name not updated: %q", got.FullName)
	}
	if got.Phone != "3110000000" {
		t.Errorf("empty phone overwrote stored value: %q", got.Phone)
	}
}

func TestDeleteCitizenOrphansPetitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.RegisterPetition(ctx, &models.Citizen{
		NationalID: "777",
		FullName:   "Luisa Martínez",
		Locality:   "Pueblo Nuevo",
	}, "Alumbrado público")
	if err != nil {
		t.Fatalf("RegisterPetition failed: %v", err)
	}

	// Deleting a citizen that owns petitions must succeed and must NOT
	// delete them. The orphaning is a known product gap; this test pins it
	// so a schema change cannot silently alter the behavior.
	if err := store.DeleteCitizen(ctx, id); err != nil {
		t.Fatalf("DeleteCitizen failed: %v", err)
	}

	petitions, err := store.ListPetitionsByCitizen(ctx, id)
	if err != nil {
		t.Fatalf("ListPetitionsByCitizen failed: %v", err)
	}
	if len(petitions) != 1 {
		t.Fatalf("expected the petition to survive its citizen, got %d rows", len(petitions))
	}

	if _, err := store.GetCitizenByNationalID(ctx, "777"); err != storage.ErrNotFound {
		t.Errorf("expected citizen gone, got err=%v", err)
	}
}

func TestListRecentCitizensCarriesLatestPetition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.RegisterPetition(ctx, &models.Citizen{
		NationalID: "111",
		FullName:   "Ana",
		Locality:   "Centro",
	}, "Vieja"); err != nil {
		t.Fatalf("RegisterPetition failed: %v", err)
	}
	if _, err := store.RegisterPetition(ctx, &models.Citizen{
		NationalID: "111",
		FullName:   "Ana",
		Locality:   "Centro",
	}, "Nueva"); err != nil {
		t.Fatalf("second RegisterPetition failed: %v", err)
	}

	citizens, err := store.ListRecentCitizens(ctx, 20)
	if err != nil {
		t.Fatalf("ListRecentCitizens failed: %v", err)
	}
	if len(citizens) != 1 {
		t.Fatalf("expected 1 citizen, got %d", len(citizens))
	}
	latest := citizens[0].LatestPetition
	if latest == nil {
		t.Fatal("expected the latest petition to be populated")
	}
	if latest.Subject != "Nueva" {
		t.Errorf("latest petition = %q, want the newest", latest.Subject)
	}
}

func TestCitizensByLocality(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, loc := range []string{"Centro", "Centro", "Norte"} {
		if _, err := store.RegisterPetition(ctx, &models.Citizen{
			NationalID: string(rune('a' + i)),
			FullName:   "X",
			Locality:   loc,
		}, "asunto"); err != nil {
			t.Fatalf("RegisterPetition failed: %v", err)
		}
	}

	counts, err := store.CitizensByLocality(ctx, 5)
	if err != nil {
		t.Fatalf("CitizensByLocality failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 localities, got %d", len(counts))
	}
	if counts[0].Locality != "Centro" || counts[0].Count != 2 {
		t.Errorf("unexpected top locality: %+v", counts[0])
	}
}

func TestMeetingMinutesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	meeting := &models.Meeting{
		Title:       "Consejo de gobierno",
		ScheduledAt: time.Now().Add(24 * time.Hour).Unix(),
		Notes:       "Notas crudas de la reunión.",
	}
	if err := store.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	commitments := []string{"Comprar mangueras", "Citar a los bomberos"}
	if err := store.SetMeetingMinutes(ctx, meeting.ID, "Acta formal.", commitments); err != nil {
		t.Fatalf("SetMeetingMinutes failed: %v", err)
	}

	got, err := store.GetMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if got.Notes != meeting.Notes {
		t.Errorf("notes changed: %q", got.Notes)
	}
	if got.Minutes != "Acta formal." {
		t.Errorf("minutes = %q", got.Minutes)
	}
	if len(got.Commitments) != 2 {
		t.Fatalf("commitments = %v", got.Commitments)
	}

	// The column stores the commitments as one JSON-encoded text value.
	var raw string
	if err := store.db.QueryRowContext(ctx,
		"SELECT commitments FROM meetings WHERE id = ?", meeting.ID,
	).Scan(&raw); err != nil {
		t.Fatalf("raw column read failed: %v", err)
	}
	want, _ := json.Marshal(commitments)
	if raw != string(want) {
		t.Errorf("commitments column = %q, want %q", raw, want)
	}
}

func TestDeleteMeetingCascadesTasks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	meeting := &models.Meeting{Title: "Con tareas", ScheduledAt: time.Now().Unix()}
	if err := store.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	task := &models.Task{MeetingID: meeting.ID, Description: "Preparar informe"}
	if err := store.AddTask(ctx, task); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if err := store.SetTaskDone(ctx, task.ID, true); err != nil {
		t.Fatalf("SetTaskDone failed: %v", err)
	}

	got, err := store.GetMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if len(got.Tasks) != 1 || !got.Tasks[0].Done {
		t.Fatalf("unexpected tasks: %+v", got.Tasks)
	}

	if err := store.DeleteMeeting(ctx, meeting.ID); err != nil {
		t.Fatalf("DeleteMeeting failed: %v", err)
	}

	var count int
	if err := store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM meeting_tasks WHERE meeting_id = ?", meeting.ID,
	).Scan(&count); err != nil {
		t.Fatalf("task count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected tasks to cascade, %d left", count)
	}
}

func TestTaskPositionsAreOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	meeting := &models.Meeting{Title: "Ordenada", ScheduledAt: time.Now().Unix()}
	if err := store.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	for _, desc := range []string{"primera", "segunda", "tercera"} {
		if err := store.AddTask(ctx, &models.Task{MeetingID: meeting.ID, Description: desc}); err != nil {
			t.Fatalf("AddTask(%q) failed: %v", desc, err)
		}
	}

	got, err := store.GetMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if len(got.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(got.Tasks))
	}
	for i, want := range []string{"primera", "segunda", "tercera"} {
		if got.Tasks[i].Description != want || got.Tasks[i].Position != i {
			t.Errorf("task %d = %+v, want %q at position %d", i, got.Tasks[i], want, i)
		}
	}
}

func TestListMeetingsBetween(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, m := range []*models.Meeting{
		{Title: "dentro", ScheduledAt: base.Add(10 * time.Hour).Unix()},
		{Title: "después", ScheduledAt: base.Add(30 * time.Hour).Unix()},
		{Title: "antes", ScheduledAt: base.Add(-time.Hour).Unix()},
	} {
		if err := store.CreateMeeting(ctx, m); err != nil {
			t.Fatalf("CreateMeeting failed: %v", err)
		}
	}

	got, err := store.ListMeetingsBetween(ctx, base.Unix(), base.Add(24*time.Hour).Unix())
	if err != nil {
		t.Fatalf("ListMeetingsBetween failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "dentro" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestUserUpsertByEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := models.NewUser("admin@governa.com", "Admin", "hash1", models.RoleAdmin)
	if err := store.UpsertUserByEmail(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second := models.NewUser("admin@governa.com", "Admin Renombrado", "hash2", models.RoleAdmin)
	if err := store.UpsertUserByEmail(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "admin@governa.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a user")
	}
	if got.ID != first.ID {
		t.Errorf("upsert must keep the original row, got ID %s want %s", got.ID, first.ID)
	}
	if got.Name != "Admin Renombrado" || got.PasswordHash != "hash2" {
		t.Errorf("upsert did not refresh fields: %+v", got)
	}
}

func TestUpdatePetitionStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.RegisterPetition(ctx, &models.Citizen{
		NationalID: "888", FullName: "N", Locality: "L",
	}, "asunto")
	if err != nil {
		t.Fatalf("RegisterPetition failed: %v", err)
	}
	petitions, _ := store.ListPetitionsByCitizen(ctx, id)

	if err := store.UpdatePetitionStatus(ctx, petitions[0].ID, models.PetitionFulfilled); err != nil {
		t.Fatalf("UpdatePetitionStatus failed: %v", err)
	}

	count, err := store.CountPetitionsByStatus(ctx, models.PetitionFulfilled)
	if err != nil {
		t.Fatalf("CountPetitionsByStatus failed: %v", err)
	}
	if count != 1 {
		t.Errorf("fulfilled count = %d, want 1", count)
	}

	if err := store.UpdatePetitionStatus(ctx, "missing", models.PetitionRejected); err != storage.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing petition, got %v", err)
	}
}
