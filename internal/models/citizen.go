package models

// NationalIDUnknown is the placeholder stored when a citizen's national ID
// is not known at registration time.
const NationalIDUnknown = "SIN-CEDULA"

// Citizen represents a constituent known to the municipality.
type Citizen struct {
	// ID is the unique identifier for the citizen (UUID format).
	ID string `json:"id"`

	// NationalID is the citizen's identity document number (cédula).
	// Unique across citizens; may hold NationalIDUnknown.
	NationalID string `json:"nationalId"`

	// FullName is the citizen's full name.
	FullName string `json:"fullName"`

	// Locality is the vereda or neighborhood the citizen belongs to.
	Locality string `json:"locality"`

	// Phone is an optional contact number.
	Phone string `json:"phone,omitempty"`

	// CreatedAt and UpdatedAt are Unix timestamps maintained by the store.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`

	// LatestPetition is the citizen's most recent petition, populated by
	// list queries for display. Nil when the citizen has none.
	LatestPetition *Petition `json:"latestPetition,omitempty"`
}
