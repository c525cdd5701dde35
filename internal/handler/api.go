package handler

import (
	"github.com/slipstreak/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	records *service.RecordService
	streaks *service.StreakService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(records *service.RecordService, streaks *service.StreakService) *API {
	return &API{
		records: records,
		streaks: streaks,
	}
}
