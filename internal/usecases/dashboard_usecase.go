package usecases

import (
	"context"

	"ticallbot/internal/entities"
	"ticallbot/internal/interfaces"
)

// DashboardUsecase serves the conversation log views the legacy app rendered
// on its index page, now as JSON.
type DashboardUsecase struct {
	logs interfaces.LogStore
}

type DashboardStats struct {
	Received int `json:"received"`
	Sent     int `json:"sent"`
	Total    int `json:"total"`
}

func NewDashboardUsecase(logs interfaces.LogStore) *DashboardUsecase {
	return &DashboardUsecase{logs: logs}
}

// RecentLogs returns the newest audit entries, capped at 500 per request.
func (uc *DashboardUsecase) RecentLogs(ctx context.Context, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return uc.logs.List(ctx, limit)
}

func (uc *DashboardUsecase) Stats(ctx context.Context) (DashboardStats, error) {
	counts, err := uc.logs.CountByDirection(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	stats := DashboardStats{
		Received: counts[entities.DirectionReceived],
		Sent:     counts[entities.DirectionSent],
	}
	stats.Total = stats.Received + stats.Sent
	return stats, nil
}
