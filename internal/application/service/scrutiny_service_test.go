package service

import (
	"context"
	"testing"
	"time"

	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

func appealsWithStatuses(statuses ...entity.AppealStatus) []*entity.Appeal {
	appeals := make([]*entity.Appeal, 0, len(statuses))
	for i, status := range statuses {
		appeals = append(appeals, &entity.Appeal{
			ID:       int64(i + 1),
			Category: entity.CategoryCancellationFee,
			Status:   status,
		})
	}
	return appeals
}

func TestScrutinyService_Recompute_Levels(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []entity.AppealStatus
		wantLevel entity.ScrutinyLevel
	}{
		{
			name:      "no history",
			statuses:  nil,
			wantLevel: entity.ScrutinyNone,
		},
		{
			name:      "two appeals stay none",
			statuses:  []entity.AppealStatus{entity.AppealStatusApproved, entity.AppealStatusUnderReview},
			wantLevel: entity.ScrutinyNone,
		},
		{
			name:      "three appeals reach watch",
			statuses:  []entity.AppealStatus{entity.AppealStatusApproved, entity.AppealStatusApproved, entity.AppealStatusSubmitted},
			wantLevel: entity.ScrutinyWatch,
		},
		{
			name:      "two denials reach watch",
			statuses:  []entity.AppealStatus{entity.AppealStatusDenied, entity.AppealStatusDenied},
			wantLevel: entity.ScrutinyWatch,
		},
		{
			name: "three denials reach high risk",
			statuses: []entity.AppealStatus{
				entity.AppealStatusDenied, entity.AppealStatusDenied, entity.AppealStatusDenied,
			},
			wantLevel: entity.ScrutinyHighRisk,
		},
		{
			name: "five appeals reach high risk regardless of outcome",
			statuses: []entity.AppealStatus{
				entity.AppealStatusApproved, entity.AppealStatusApproved,
				entity.AppealStatusApproved, entity.AppealStatusApproved,
				entity.AppealStatusApproved,
			},
			wantLevel: entity.ScrutinyHighRisk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appealRepo := &mockAppealRepo{
				getByAppealerSinceFunc: func(ctx context.Context, appealerID int64, since time.Time) ([]*entity.Appeal, error) {
					return appealsWithStatuses(tt.statuses...), nil
				},
			}
			var saved *entity.ScrutinyProfile
			userStore := &mockUserStore{
				saveScrutinyProfileFunc: func(ctx context.Context, profile *entity.ScrutinyProfile) error {
					saved = profile
					return nil
				},
			}
			svc := NewScrutinyService(appealRepo, userStore, &mockLogger{})

			profile, err := svc.Recompute(context.Background(), 7)
			if err != nil {
				t.Fatalf("Recompute() error = %v", err)
			}
			if profile.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", profile.Level, tt.wantLevel)
			}
			if saved == nil {
				t.Fatal("expected profile to be persisted")
			}
			if saved.RecentAppeals != len(tt.statuses) {
				t.Errorf("recent appeals = %d, want %d", saved.RecentAppeals, len(tt.statuses))
			}
		})
	}
}

func TestScrutinyService_Recompute_ApprovalRate(t *testing.T) {
	appealRepo := &mockAppealRepo{
		getByAppealerSinceFunc: func(ctx context.Context, appealerID int64, since time.Time) ([]*entity.Appeal, error) {
			return appealsWithStatuses(
				entity.AppealStatusApproved,
				entity.AppealStatusPartiallyApproved,
				entity.AppealStatusDenied,
				entity.AppealStatusUnderReview, // unresolved, excluded from the rate
			), nil
		},
	}
	svc := NewScrutinyService(appealRepo, &mockUserStore{}, &mockLogger{})

	profile, err := svc.Recompute(context.Background(), 7)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	want := 2.0 / 3.0
	if diff := profile.ApprovalRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("approval rate = %f, want %f", profile.ApprovalRate, want)
	}
	if profile.RecentDenials != 1 {
		t.Errorf("recent denials = %d, want 1", profile.RecentDenials)
	}
}

func TestComputeScrutinyLevel_Thresholds(t *testing.T) {
	tests := []struct {
		appeals, denials int
		want             entity.ScrutinyLevel
	}{
		{0, 0, entity.ScrutinyNone},
		{2, 1, entity.ScrutinyNone},
		{3, 0, entity.ScrutinyWatch},
		{0, 2, entity.ScrutinyWatch},
		{5, 0, entity.ScrutinyHighRisk},
		{4, 3, entity.ScrutinyHighRisk},
	}

	for _, tt := range tests {
		got, _ := entity.ComputeScrutinyLevel(tt.appeals, tt.denials)
		if got != tt.want {
			t.Errorf("ComputeScrutinyLevel(%d, %d) = %s, want %s", tt.appeals, tt.denials, got, tt.want)
		}
	}
}
