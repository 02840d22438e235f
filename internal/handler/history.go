package handler

import (
	"net/http"
	"strconv"
	"time"

	"printwatch/internal/dto"
	"printwatch/internal/logger"
	"printwatch/internal/repository"
)

const defaultPageSize = 24

// FrameStats describes the frames directory for the history page.
type FrameStats interface {
	Dir() string
	List() ([]string, error)
	DirectorySize() (int64, error)
}

// GetHistoryHandler returns a filtered, paginated list of past checks.
// Query parameters: page, limit, error=true, class, dateAfter, dateBefore.
func GetHistoryHandler(logger *logger.Logger, checkRepo repository.CheckRepository,
	detectionRepo repository.DetectionRepository, frames FrameStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultPageSize)

		filter := &dto.CheckFilters{
			ErrorOnly: q.Get("error") == "true",
			Class:     q.Get("class"),
			After:     parseDate(q.Get("dateAfter")),
			Before:    endOfDay(parseDate(q.Get("dateBefore"))),
			Limit:     limit,
			Offset:    (page - 1) * limit,
		}

		checks, err := checkRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying checks from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := checkRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting checks: %v", err)
			totalCount = len(checks)
		}

		if detectionRepo != nil {
			for i := range checks {
				dets, err := detectionRepo.GetByCheckID(checks[i].ID)
				if err != nil {
					logger.Error("Error getting detections for check %s: %v", checks[i].ID, err)
					continue
				}
				checks[i].Detections = dets
			}
		}

		data := dto.HistoryData{
			Checks:      checks,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		if frames != nil {
			data.FramesDir = frames.Dir()
			if names, err := frames.List(); err != nil {
				logger.Error("Error listing frames: %v", err)
			} else {
				data.FrameCount = len(names)
			}
			if size, err := frames.DirectorySize(); err != nil {
				logger.Error("Error getting frames directory size: %v", err)
			} else {
				data.Size = size
			}
		}

		writeJSON(w, http.StatusOK, data, logger)
	}
}

// ViewCheckHandler returns a single check, with its detections, by id.
func ViewCheckHandler(logger *logger.Logger, checkRepo repository.CheckRepository,
	detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "id parameter is required", http.StatusBadRequest)
			return
		}

		check, err := checkRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading check %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if check == nil {
			http.Error(w, "Check not found", http.StatusNotFound)
			return
		}

		if detectionRepo != nil {
			dets, err := detectionRepo.GetByCheckID(id)
			if err != nil {
				logger.Error("Error getting detections for check %s: %v", id, err)
			} else {
				check.Detections = dets
			}
		}

		writeJSON(w, http.StatusOK, check, logger)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// endOfDay turns a dateBefore into an exclusive bound so the whole day is included.
func endOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.AddDate(0, 0, 1)
}
