package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/governa/governa/internal/models"
	"github.com/governa/governa/internal/storage"
)

// RegisterPetition upserts the citizen by national ID and files a PENDING
// petition, all inside one transaction.
//
// The UNIQUE constraint on national_id plus ON CONFLICT DO UPDATE is what
// resolves the concurrent double-registration race: two simultaneous
// registrations for the same cédula serialize on the constraint and converge
// on a single citizen row, each keeping its own petition.
func (s *SQLiteStore) RegisterPetition(ctx context.Context, citizen *models.Citizen, subject string) (string, error) {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Upsert the citizen. Empty incoming contact fields keep the stored
	// values; non-empty ones overwrite them.
	var citizenID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO citizens (id, national_id, full_name, locality, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(national_id) DO UPDATE SET
			full_name  = CASE WHEN excluded.full_name <> '' THEN excluded.full_name ELSE citizens.full_name END,
			locality   = CASE WHEN excluded.locality  <> '' THEN excluded.locality  ELSE citizens.locality  END,
			phone      = CASE WHEN excluded.phone     <> '' THEN excluded.phone     ELSE citizens.phone     END,
			updated_at = excluded.updated_at
		RETURNING id`,
		uuid.New().String(), citizen.NationalID, citizen.FullName, citizen.Locality, citizen.Phone, now, now,
	).Scan(&citizenID)
	if err != nil {
		return "", fmt.Errorf("failed to upsert citizen: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO petitions (id, citizen_id, subject, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), citizenID, subject, models.PetitionPending, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert petition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	citizen.ID = citizenID
	return citizenID, nil
}

// GetCitizenByNationalID retrieves a citizen by cédula.
func (s *SQLiteStore) GetCitizenByNationalID(ctx context.Context, nationalID string) (*models.Citizen, error) {
	citizen := &models.Citizen{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, national_id, full_name, locality, phone, created_at, updated_at
		FROM citizens WHERE national_id = ?`,
		nationalID,
	).Scan(
		&citizen.ID,
		&citizen.NationalID,
		&citizen.FullName,
		&citizen.Locality,
		&citizen.Phone,
		&citizen.CreatedAt,
		&citizen.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get citizen: %w", err)
	}
	return citizen, nil
}

// ListRecentCitizens returns the most recently updated citizens, each with
// its latest petition when one exists.
func (s *SQLiteStore) ListRecentCitizens(ctx context.Context, limit int) ([]*models.Citizen, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.national_id, c.full_name, c.locality, c.phone, c.created_at, c.updated_at,
		       p.id, p.subject, p.status, p.created_at
		FROM citizens c
		LEFT JOIN petitions p ON p.id = (
			SELECT id FROM petitions
			WHERE citizen_id = c.id
			ORDER BY created_at DESC, rowid DESC
			LIMIT 1
		)
		ORDER BY c.updated_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list citizens: %w", err)
	}
	defer rows.Close()

	var citizens []*models.Citizen
	for rows.Next() {
		citizen := &models.Citizen{}
		var (
			petitionID      sql.NullString
			petitionSubject sql.NullString
			petitionStatus  sql.NullString
			petitionCreated sql.NullInt64
		)
		if err := rows.Scan(
			&citizen.ID,
			&citizen.NationalID,
			&citizen.FullName,
			&citizen.Locality,
			&citizen.Phone,
			&citizen.CreatedAt,
			&citizen.UpdatedAt,
			&petitionID,
			&petitionSubject,
			&petitionStatus,
			&petitionCreated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan citizen: %w", err)
		}
		if petitionID.Valid {
			citizen.LatestPetition = &models.Petition{
				ID:        petitionID.String,
				CitizenID: citizen.ID,
				Subject:   petitionSubject.String,
				Status:    models.PetitionStatus(petitionStatus.String),
				CreatedAt: petitionCreated.Int64,
			}
		}
		citizens = append(citizens, citizen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate citizens: %w", err)
	}
	return citizens, nil
}

// UpdateCitizen updates a citizen's name, locality and phone.
func (s *SQLiteStore) UpdateCitizen(ctx context.Context, citizen *models.Citizen) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE citizens SET full_name = ?, locality = ?, phone = ?, updated_at = ?
		WHERE id = ?`,
		citizen.FullName, citizen.Locality, citizen.Phone, time.Now().Unix(), citizen.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update citizen: %w", err)
	}
	return requireAffected(res)
}

// DeleteCitizen removes a citizen. Its petitions are left in place; there is
// no foreign key so the delete never fails on them.
func (s *SQLiteStore) DeleteCitizen(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM citizens WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete citizen: %w", err)
	}
	return requireAffected(res)
}

// CountCitizens returns the total number of citizens.
func (s *SQLiteStore) CountCitizens(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM citizens").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count citizens: %w", err)
	}
	return count, nil
}

// CitizensByLocality returns the top localities by citizen count.
func (s *SQLiteStore) CitizensByLocality(ctx context.Context, limit int) ([]storage.LocalityCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT locality, COUNT(id) AS n
		FROM citizens
		GROUP BY locality
		ORDER BY n DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to group citizens by locality: %w", err)
	}
	defer rows.Close()

	var counts []storage.LocalityCount
	for rows.Next() {
		var lc storage.LocalityCount
		if err := rows.Scan(&lc.Locality, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan locality count: %w", err)
		}
		counts = append(counts, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locality counts: %w", err)
	}
	return counts, nil
}

// ListPetitionsByCitizen returns a citizen's petitions, newest first.
func (s *SQLiteStore) ListPetitionsByCitizen(ctx context.Context, citizenID string) ([]*models.Petition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, citizen_id, subject, status, created_at
		FROM petitions
		WHERE citizen_id = ?
		ORDER BY created_at DESC, rowid DESC`,
		citizenID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list petitions: %w", err)
	}
	defer rows.Close()

	var petitions []*models.Petition
	for rows.Next() {
		p := &models.Petition{}
		if err := rows.Scan(&p.ID, &p.CitizenID, &p.Subject, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan petition: %w", err)
		}
		petitions = append(petitions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate petitions: %w", err)
	}
	return petitions, nil
}

// UpdatePetitionStatus moves a petition to a new lifecycle state.
func (s *SQLiteStore) UpdatePetitionStatus(ctx context.Context, id string, status models.PetitionStatus) error {
	res, err := s.db.ExecContext(ctx, "UPDATE petitions SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update petition status: %w", err)
	}
	return requireAffected(res)
}

// CountPetitionsByStatus counts petitions in the given state.
func (s *SQLiteStore) CountPetitionsByStatus(ctx context.Context, status models.PetitionStatus) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM petitions WHERE status = ?", status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count petitions: %w", err)
	}
	return count, nil
}

// requireAffected maps a zero-row write to storage.ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
