package service

import (
	"context"
	"fmt"
	"time"

	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// ScrutinyService derives a user's abuse-risk tier from their appeal
// history. Recompute is a pure function of history over a rolling 6-month
// window; nothing is incrementally mutated, so repeated calls converge.
type ScrutinyService interface {
	Recompute(ctx context.Context, userID int64) (*entity.ScrutinyProfile, error)
}

type scrutinyServiceImpl struct {
	appealRepo port.AppealRepository
	userStore  port.UserStore
	logger     Logger
}

// NewScrutinyService creates a new ScrutinyService
func NewScrutinyService(appealRepo port.AppealRepository, userStore port.UserStore, logger Logger) ScrutinyService {
	return &scrutinyServiceImpl{
		appealRepo: appealRepo,
		userStore:  userStore,
		logger:     logger,
	}
}

// Recompute rebuilds the scrutiny profile from the rolling window and
// persists it on the user.
func (s *scrutinyServiceImpl) Recompute(ctx context.Context, userID int64) (*entity.ScrutinyProfile, error) {
	now := time.Now()
	since := now.Add(-entity.ScrutinyWindow)

	appeals, err := s.appealRepo.GetByAppealerSince(ctx, userID, since)
	if err != nil {
		s.logger.Error("Failed to load appeal history", "error", err, "user_id", userID)
		return nil, fmt.Errorf("load appeal history: %w", err)
	}

	var denials, resolved, granted int
	categories := make(map[entity.AppealCategory]int)

	for _, appeal := range appeals {
		categories[appeal.Category]++

		switch appeal.Status {
		case entity.AppealStatusDenied:
			denials++
			resolved++
		case entity.AppealStatusApproved, entity.AppealStatusPartiallyApproved:
			granted++
			resolved++
		}
	}

	level, reason := entity.ComputeScrutinyLevel(len(appeals), denials)

	var approvalRate float64
	if resolved > 0 {
		approvalRate = float64(granted) / float64(resolved)
	}

	profile := &entity.ScrutinyProfile{
		UserID:         userID,
		Level:          level,
		Reason:         reason,
		RecentAppeals:  len(appeals),
		RecentDenials:  denials,
		CategoryCounts: entity.EncodeCategoryCounts(categories),
		ApprovalRate:   approvalRate,
		ComputedAt:     now,
	}

	if err := s.userStore.SaveScrutinyProfile(ctx, profile); err != nil {
		s.logger.Error("Failed to save scrutiny profile", "error", err, "user_id", userID)
		return nil, fmt.Errorf("save scrutiny profile: %w", err)
	}

	s.logger.Info("Scrutiny profile recomputed",
		"user_id", userID,
		"level", level,
		"recent_appeals", len(appeals),
		"recent_denials", denials,
	)

	return profile, nil
}
