// HistoryData is a paginated response payload for the check history.
package dto

import "printwatch/internal/model"

type HistoryData struct {
	Checks      []model.CheckRecord `json:"checks"`
	FramesDir   string              `json:"framesDir"`
	FrameCount  int                 `json:"frameCount"`
	Size        int64               `json:"size"`
	Length      int                 `json:"length"`
	TotalPages  int                 `json:"totalPages"`
	CurrentPage int                 `json:"currentPage"`
	Limit       int                 `json:"pageSize"`
}
