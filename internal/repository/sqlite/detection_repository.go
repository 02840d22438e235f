package sqlite

import (
	"database/sql"
	"fmt"

	"printwatch/internal/model"
)

// DetectionRepository implements repository.DetectionRepository for SQLite.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// InsertBatch adds the detections of one check in a single transaction,
// keeping their order.
func (r *DetectionRepository) InsertBatch(checkID string, detections []model.Detection) error {
	if len(detections) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO detections (check_id, position, class_id, class_name, confidence, x, y, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, det := range detections {
		var x, y, width, height sql.NullInt64
		if det.Box != nil {
			x = sql.NullInt64{Int64: int64(det.Box.X), Valid: true}
			y = sql.NullInt64{Int64: int64(det.Box.Y), Valid: true}
			width = sql.NullInt64{Int64: int64(det.Box.Width), Valid: true}
			height = sql.NullInt64{Int64: int64(det.Box.Height), Valid: true}
		}
		if _, err := stmt.Exec(checkID, i, det.ClassID, det.ClassName, det.Confidence, x, y, width, height); err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	return tx.Commit()
}

// GetByCheckID retrieves the detections of a check in detection order.
func (r *DetectionRepository) GetByCheckID(checkID string) ([]model.Detection, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT class_id, class_name, confidence, x, y, width, height
		FROM detections WHERE check_id = ? ORDER BY position
	`, checkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	detections := []model.Detection{}
	for rows.Next() {
		var det model.Detection
		var x, y, width, height sql.NullInt64
		if err := rows.Scan(&det.ClassID, &det.ClassName, &det.Confidence, &x, &y, &width, &height); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		if x.Valid && y.Valid && width.Valid && height.Valid {
			det.Box = &model.Box{X: int(x.Int64), Y: int(y.Int64), Width: int(width.Int64), Height: int(height.Int64)}
		}
		detections = append(detections, det)
	}

	return detections, rows.Err()
}

// GetClassNames returns a list of all unique detected class names.
func (r *DetectionRepository) GetClassNames() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT class_name FROM detections ORDER BY class_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query class names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan class name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
