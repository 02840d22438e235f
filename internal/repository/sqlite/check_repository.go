package sqlite

import (
	"database/sql"
	"fmt"

	"printwatch/internal/dto"
	"printwatch/internal/model"
)

// CheckRepository implements repository.CheckRepository for SQLite.
// Timestamps are stored in UTC so that text comparison orders them.
type CheckRepository struct {
	db *DB
}

// NewCheckRepository creates a new SQLite check repository.
func NewCheckRepository(db *DB) *CheckRepository {
	return &CheckRepository{db: db}
}

// Insert adds a new check record. Detections are stored separately.
func (r *CheckRepository) Insert(check *model.CheckRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO checks (id, image_path, annotated_path, error, warning, main_class, main_confidence, notified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, check.ID, check.ImagePath, check.AnnotatedPath, check.Error, check.Warning,
		nullString(check.MainClass), nullFloat(check.MainConfidence), check.Notified, check.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert check: %w", err)
	}
	return nil
}

// GetByID retrieves a check by its ID. It returns nil when none exists.
func (r *CheckRepository) GetByID(id string) (*model.CheckRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, image_path, annotated_path, error, warning, main_class, main_confidence, notified, created_at
		FROM checks WHERE id = ?
	`, id)

	check, err := scanCheck(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check: %w", err)
	}
	return check, nil
}

// GetAll retrieves checks matching filter, newest first.
func (r *CheckRepository) GetAll(filter *dto.CheckFilters) ([]model.CheckRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := `
		SELECT c.id, c.image_path, c.annotated_path, c.error, c.warning, c.main_class, c.main_confidence, c.notified, c.created_at
		FROM checks c
	` + where + " ORDER BY c.created_at DESC, c.rowid DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query checks: %w", err)
	}
	defer rows.Close()

	checks := []model.CheckRecord{}
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		checks = append(checks, *check)
	}

	return checks, rows.Err()
}

// GetTotalCount returns the number of checks matching filter.
func (r *CheckRepository) GetTotalCount(filter *dto.CheckFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM checks c `+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count checks: %w", err)
	}
	return count, nil
}

// ExistsByImagePath checks if a check for the given frame exists.
func (r *CheckRepository) ExistsByImagePath(imagePath string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM checks WHERE image_path = ?`, imagePath).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}

// DeleteByImagePath removes the checks of a frame together with their detections.
func (r *CheckRepository) DeleteByImagePath(imagePath string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`
		DELETE FROM detections WHERE check_id IN (SELECT id FROM checks WHERE image_path = ?)
	`, imagePath); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM checks WHERE image_path = ?`, imagePath); err != nil {
		return fmt.Errorf("failed to delete checks: %w", err)
	}
	return nil
}

func buildWhere(filter *dto.CheckFilters) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return where, args
	}

	if filter.ErrorOnly {
		where += " AND c.error = 1"
	}

	if filter.Class != "" {
		where += " AND EXISTS (SELECT 1 FROM detections d WHERE d.check_id = c.id AND d.class_name = ?)"
		args = append(args, filter.Class)
	}

	if !filter.After.IsZero() {
		where += " AND c.created_at >= ?"
		args = append(args, filter.After.UTC())
	}

	if !filter.Before.IsZero() {
		where += " AND c.created_at < ?"
		args = append(args, filter.Before.UTC())
	}

	return where, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCheck(row rowScanner) (*model.CheckRecord, error) {
	var check model.CheckRecord
	var mainClass sql.NullString
	var mainConfidence sql.NullFloat64

	if err := row.Scan(&check.ID, &check.ImagePath, &check.AnnotatedPath, &check.Error, &check.Warning,
		&mainClass, &mainConfidence, &check.Notified, &check.CreatedAt); err != nil {
		return nil, err
	}

	if mainClass.Valid {
		check.MainClass = &mainClass.String
	}
	if mainConfidence.Valid {
		check.MainConfidence = &mainConfidence.Float64
	}
	return &check, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
