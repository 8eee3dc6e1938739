package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/governa/governa/internal/models"
	"github.com/governa/governa/internal/storage"
)

// CreateMeeting persists a new meeting, assigning an ID and timestamps when
// unset. Commitments, when present, are stored JSON-encoded in a single text
// column; tasks are inserted in order.
func (s *SQLiteStore) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if meeting.CreatedAt == 0 {
		meeting.CreatedAt = now
	}
	if meeting.UpdatedAt == 0 {
		meeting.UpdatedAt = meeting.CreatedAt
	}

	commitments, err := encodeCommitments(meeting.Commitments)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meetings (id, title, scheduled_at, notes, minutes, commitments, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meeting.ID, meeting.Title, meeting.ScheduledAt, meeting.Notes,
		meeting.Minutes, commitments, meeting.CreatedAt, meeting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert meeting: %w", err)
	}

	for i := range meeting.Tasks {
		task := &meeting.Tasks[i]
		if task.ID == "" {
			task.ID = uuid.New().String()
		}
		task.MeetingID = meeting.ID
		task.Position = i
		_, err = tx.ExecContext(ctx, `
			INSERT INTO meeting_tasks (id, meeting_id, description, done, position)
			VALUES (?, ?, ?, ?, ?)`,
			task.ID, task.MeetingID, task.Description, task.Done, task.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetMeeting retrieves a meeting with its ordered tasks.
func (s *SQLiteStore) GetMeeting(ctx context.Context, id string) (*models.Meeting, error) {
	meeting := &models.Meeting{}
	var commitments string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, scheduled_at, notes, minutes, commitments, created_at, updated_at
		FROM meetings WHERE id = ?`,
		id,
	).Scan(
		&meeting.ID,
		&meeting.Title,
		&meeting.ScheduledAt,
		&meeting.Notes,
		&meeting.Minutes,
		&commitments,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}

	if meeting.Commitments, err = decodeCommitments(commitments); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, meeting_id, description, done, position
		FROM meeting_tasks
		WHERE meeting_id = ?
		ORDER BY position ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.MeetingID, &task.Description, &task.Done, &task.Position); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		meeting.Tasks = append(meeting.Tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return meeting, nil
}

// ListMeetingsFrom returns meetings scheduled at or after from, ascending.
func (s *SQLiteStore) ListMeetingsFrom(ctx context.Context, from int64, limit int) ([]*models.Meeting, error) {
	return s.listMeetings(ctx, `
		SELECT id, title, scheduled_at, notes, minutes, commitments, created_at, updated_at
		FROM meetings
		WHERE scheduled_at >= ?
		ORDER BY scheduled_at ASC
		LIMIT ?`,
		from, limit)
}

// ListMeetingsBetween returns meetings scheduled in [from, to), ascending.
func (s *SQLiteStore) ListMeetingsBetween(ctx context.Context, from, to int64) ([]*models.Meeting, error) {
	return s.listMeetings(ctx, `
		SELECT id, title, scheduled_at, notes, minutes, commitments, created_at, updated_at
		FROM meetings
		WHERE scheduled_at >= ? AND scheduled_at < ?
		ORDER BY scheduled_at ASC`,
		from, to)
}

func (s *SQLiteStore) listMeetings(ctx context.Context, query string, args ...any) ([]*models.Meeting, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*models.Meeting
	for rows.Next() {
		meeting := &models.Meeting{}
		var commitments string
		if err := rows.Scan(
			&meeting.ID,
			&meeting.Title,
			&meeting.ScheduledAt,
			&meeting.Notes,
			&meeting.Minutes,
			&commitments,
			&meeting.CreatedAt,
			&meeting.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		if meeting.Commitments, err = decodeCommitments(commitments); err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meetings: %w", err)
	}
	return meetings, nil
}

// UpdateMeeting updates a meeting's title and schedule.
func (s *SQLiteStore) UpdateMeeting(ctx context.Context, id, title string, scheduledAt int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE meetings SET title = ?, scheduled_at = ?, updated_at = ?
		WHERE id = ?`,
		title, scheduledAt, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	return requireAffected(res)
}

// UpdateMeetingNotes replaces a meeting's raw notes. Generated minutes are
// left untouched: they are derived artifacts, never authoritative.
func (s *SQLiteStore) UpdateMeetingNotes(ctx context.Context, id, notes string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE meetings SET notes = ?, updated_at = ?
		WHERE id = ?`,
		notes, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}
	return requireAffected(res)
}

// SetMeetingMinutes stores generated minutes and their commitments.
func (s *SQLiteStore) SetMeetingMinutes(ctx context.Context, id, minutes string, commitments []string) error {
	encoded, err := encodeCommitments(commitments)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE meetings SET minutes = ?, commitments = ?, updated_at = ?
		WHERE id = ?`,
		minutes, encoded, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set minutes: %w", err)
	}
	return requireAffected(res)
}

// DeleteMeeting removes a meeting; its tasks cascade.
func (s *SQLiteStore) DeleteMeeting(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meetings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	return requireAffected(res)
}

// AddTask appends a task to a meeting's checklist.
func (s *SQLiteStore) AddTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	// Next position within the meeting.
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position)+1, 0) FROM meeting_tasks WHERE meeting_id = ?",
		task.MeetingID,
	).Scan(&task.Position)
	if err != nil {
		return fmt.Errorf("failed to compute task position: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meeting_tasks (id, meeting_id, description, done, position)
		VALUES (?, ?, ?, ?, ?)`,
		task.ID, task.MeetingID, task.Description, task.Done, task.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// SetTaskDone flips a task's completion flag.
func (s *SQLiteStore) SetTaskDone(ctx context.Context, id string, done bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE meeting_tasks SET done = ? WHERE id = ?", done, id)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireAffected(res)
}

// DeleteTask removes a single task.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meeting_tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireAffected(res)
}

// encodeCommitments serializes commitments for the single text column. Nil
// and empty both store the empty string so the column stays readable.
func encodeCommitments(commitments []string) (string, error) {
	if len(commitments) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(commitments)
	if err != nil {
		return "", fmt.Errorf("failed to encode commitments: %w", err)
	}
	return string(encoded), nil
}

func decodeCommitments(encoded string) ([]string, error) {
	if encoded == "" {
		return nil, nil
	}
	var commitments []string
	if err := json.Unmarshal([]byte(encoded), &commitments); err != nil {
		return nil, fmt.Errorf("failed to decode commitments: %w", err)
	}
	return commitments, nil
}
