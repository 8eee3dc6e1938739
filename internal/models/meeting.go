package models

// Meeting represents a scheduled governmental appointment.
//
// Minutes and Commitments are derived artifacts: they are present only after
// the extraction pipeline has run successfully, and they never replace the
// underlying Notes, which stay independently editable.
type Meeting struct {
	// ID is the unique identifier for the meeting (UUID format).
	ID string `json:"id"`

	// Title is the meeting's display title.
	Title string `json:"title"`

	// ScheduledAt is the Unix timestamp of the meeting's wall-clock instant.
	// Callers construct it at the configured fixed offset so the stored
	// instant never depends on the server's local timezone.
	ScheduledAt int64 `json:"scheduledAt"`

	// Notes holds the raw notes taken during or after the meeting.
	Notes string `json:"notes,omitempty"`

	// Minutes is the formal acta generated from Notes. Empty until the
	// extraction pipeline succeeds.
	Minutes string `json:"minutes,omitempty"`

	// Commitments are the action items extracted alongside Minutes. The
	// store persists them as a JSON-encoded array in a single text column.
	Commitments []string `json:"commitments,omitempty"`

	// Tasks is the meeting's ordered checklist.
	Tasks []Task `json:"tasks,omitempty"`

	// CreatedAt and UpdatedAt are Unix timestamps maintained by the store.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Task is a checklist item attached to a meeting. Tasks have no life of
// their own: deleting the meeting deletes them.
type Task struct {
	// ID is the unique identifier for the task (UUID format).
	ID string `json:"id"`

	// MeetingID is the owning meeting's ID.
	MeetingID string `json:"meetingId"`

	// Description is the task text.
	Description string `json:"description"`

	// Done marks the task completed.
	Done bool `json:"done"`

	// Position orders tasks within their meeting.
	Position int `json:"position"`
}
