package repository

import (
	"printwatch/internal/dto"
	"printwatch/internal/model"
)

// CheckRepository defines the interface for check history operations.
type CheckRepository interface {
	// Create operations
	Insert(check *model.CheckRecord) error

	// Read operations
	GetByID(id string) (*model.CheckRecord, error)
	GetAll(filter *dto.CheckFilters) ([]model.CheckRecord, error)
	GetTotalCount(filter *dto.CheckFilters) (int, error)
	ExistsByImagePath(imagePath string) (bool, error)

	// Delete operations
	DeleteByImagePath(imagePath string) error
}

// DetectionRepository defines the interface for detection data operations.
type DetectionRepository interface {
	// Create operations
	InsertBatch(checkID string, detections []model.Detection) error

	// Read operations
	GetByCheckID(checkID string) ([]model.Detection, error)
	GetClassNames() ([]string, error)
}
