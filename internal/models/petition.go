package models

// PetitionStatus is the lifecycle state of a petition.
type PetitionStatus string

const (
	PetitionPending    PetitionStatus = "PENDING"
	PetitionInProgress PetitionStatus = "IN_PROGRESS"
	PetitionFulfilled  PetitionStatus = "FULFILLED"
	PetitionRejected   PetitionStatus = "REJECTED"
)

// Valid reports whether s is one of the known petition statuses.
func (s PetitionStatus) Valid() bool {
	switch s {
	case PetitionPending, PetitionInProgress, PetitionFulfilled, PetitionRejected:
		return true
	}
	return false
}

// Petition represents a request or complaint raised by a citizen.
//
// A petition always references the citizen it was created for, but the
// reference is not enforced with a foreign key: deleting a citizen leaves
// its petitions in place. See the storage package for the rationale.
type Petition struct {
	// ID is the unique identifier for the petition (UUID format).
	ID string `json:"id"`

	// CitizenID is the owning citizen's ID.
	CitizenID string `json:"citizenId"`

	// Subject describes what the petition is about.
	Subject string `json:"subject"`

	// Status is the current lifecycle state. New petitions start PENDING.
	Status PetitionStatus `json:"status"`

	// CreatedAt is the Unix timestamp when the petition was filed.
	CreatedAt int64 `json:"createdAt"`
}
