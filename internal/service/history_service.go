package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smart-planner/internal/model"
	"smart-planner/internal/repository"
)

// Snapshot is what a finished day plan looked like.
type Snapshot struct {
	Date      time.Time
	Total     int
	Completed int
	Blocks    []model.ScheduleBlock
	Tips      []string
}

type historyBlock struct {
	Task  string `json:"task"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type HistoryService struct {
	repo *repository.HistoryRepository
}

func NewHistoryService(repo *repository.HistoryRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// Save stores the snapshot for its day, replacing an earlier one.
func (s *HistoryService) Save(ctx context.Context, userID uint, snap Snapshot) error {
	blocks := make([]historyBlock, 0, len(snap.Blocks))
	for _, b := range snap.Blocks {
		blocks = append(blocks, historyBlock{Task: b.Title, Start: b.Start.String(), End: b.End.String()})
	}
	scheduleData, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	tips, err := json.Marshal(snap.Tips)
	if err != nil {
		return fmt.Errorf("encode tips: %w", err)
	}

	return s.repo.Upsert(ctx, &model.PlanHistory{
		UserID:         userID,
		Date:           snap.Date,
		TotalTasks:     snap.Total,
		CompletedTasks: snap.Completed,
		ScheduleData:   string(scheduleData),
		WellnessTips:   string(tips),
	})
}

func (s *HistoryService) Recent(ctx context.Context, userID uint, limit int) ([]model.PlanHistory, error) {
	return s.repo.ListRecent(ctx, userID, limit)
}
