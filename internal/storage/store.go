// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/governa/governa/internal/models"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// LocalityCount is one row of the citizens-per-locality aggregate.
type LocalityCount struct {
	Locality string `json:"locality"`
	Count    int    `json:"count"`
}

// Store defines the interface for Governa's persistence operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer, and lets tests inject a handle per
// request instead of relying on process-global state.
type Store interface {
	// RegisterPetition upserts the citizen by national ID and files a new
	// PENDING petition for it, both inside a single transaction: either the
	// citizen update and the petition commit together, or neither does.
	// Upsert semantics: a known national ID updates the citizen's contact
	// fields (empty incoming fields keep the stored values) instead of
	// creating a duplicate. Returns the citizen ID.
	RegisterPetition(ctx context.Context, citizen *models.Citizen, subject string) (string, error)

	// GetCitizenByNationalID retrieves a citizen by cédula.
	GetCitizenByNationalID(ctx context.Context, nationalID string) (*models.Citizen, error)

	// ListRecentCitizens returns up to limit citizens ordered by most
	// recently updated, each carrying its latest petition when one exists.
	ListRecentCitizens(ctx context.Context, limit int) ([]*models.Citizen, error)

	// UpdateCitizen updates name, locality and phone of an existing citizen.
	UpdateCitizen(ctx context.Context, citizen *models.Citizen) error

	// DeleteCitizen removes a citizen. Petitions owned by the citizen are
	// NOT deleted; they remain as orphaned records.
	DeleteCitizen(ctx context.Context, id string) error

	// CountCitizens returns the total number of citizens.
	CountCitizens(ctx context.Context) (int, error)

	// CitizensByLocality returns the top localities by citizen count.
	CitizensByLocality(ctx context.Context, limit int) ([]LocalityCount, error)

	// ListPetitionsByCitizen returns a citizen's petitions, newest first.
	ListPetitionsByCitizen(ctx context.Context, citizenID string) ([]*models.Petition, error)

	// UpdatePetitionStatus moves a petition to a new lifecycle state.
	UpdatePetitionStatus(ctx context.Context, id string, status models.PetitionStatus) error

	// CountPetitionsByStatus counts petitions in the given state.
	CountPetitionsByStatus(ctx context.Context, status models.PetitionStatus) (int, error)

	// CreateMeeting persists a new meeting and returns the assigned ID.
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error

	// GetMeeting retrieves a meeting with its tasks.
	GetMeeting(ctx context.Context, id string) (*models.Meeting, error)

	// ListMeetingsFrom returns up to limit meetings scheduled at or after
	// from, ascending by schedule.
	ListMeetingsFrom(ctx context.Context, from int64, limit int) ([]*models.Meeting, error)

	// ListMeetingsBetween returns meetings scheduled in [from, to),
	// ascending by schedule.
	ListMeetingsBetween(ctx context.Context, from, to int64) ([]*models.Meeting, error)

	// UpdateMeeting updates a meeting's title and schedule.
	UpdateMeeting(ctx context.Context, id, title string, scheduledAt int64) error

	// UpdateMeetingNotes replaces a meeting's raw notes.
	UpdateMeetingNotes(ctx context.Context, id, notes string) error

	// SetMeetingMinutes stores the generated minutes and commitments. The
	// commitments are persisted JSON-encoded in a single text column.
	SetMeetingMinutes(ctx context.Context, id, minutes string, commitments []string) error

	// DeleteMeeting removes a meeting and, via cascade, its tasks.
	DeleteMeeting(ctx context.Context, id string) error

	// AddTask appends a task to a meeting's checklist.
	AddTask(ctx context.Context, task *models.Task) error

	// SetTaskDone flips a task's completion flag.
	SetTaskDone(ctx context.Context, id string, done bool) error

	// DeleteTask removes a single task.
	DeleteTask(ctx context.Context, id string) error

	// CreateUser inserts a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no
	// such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns (nil, nil) when no such
	// user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpsertUserByEmail creates the user or, if the email is taken, updates
	// name, password hash and role. Used by the admin seed action.
	UpsertUserByEmail(ctx context.Context, user *models.User) error

	// Close releases any resources held by the store.
	Close() error
}
