package service

import (
	"context"
	"errors"
	"testing"

	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

func TestAuditService_Log_FillsDefaults(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, &mockLogger{})

	svc.Log(context.Background(), &entity.AuditEvent{
		EventType: entity.AuditAppealSubmitted,
	})

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	stored := repo.events[0]
	if stored.OccurredAt.IsZero() {
		t.Error("expected OccurredAt to be stamped")
	}
	if stored.RequestID == "" {
		t.Error("expected RequestID to be generated")
	}
}

func TestAuditService_Log_NeverRaises(t *testing.T) {
	repo := &mockAuditRepo{
		createFunc: func(ctx context.Context, event *entity.AuditEvent) error {
			return errors.New("disk full")
		},
	}
	svc := NewAuditService(repo, &mockLogger{})

	// Log has no error return; a failing store must not panic either.
	svc.Log(context.Background(), &entity.AuditEvent{
		EventType: entity.AuditRefundFailed,
	})
}

func TestAuditService_Search_ClampsLimit(t *testing.T) {
	var gotLimit int
	repo := &mockAuditRepo{
		searchFunc: func(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error) {
			gotLimit = filter.Limit
			return nil, nil
		},
	}
	svc := NewAuditService(repo, &mockLogger{})

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero falls back to default", limit: 0, want: 100},
		{name: "negative falls back to default", limit: -5, want: 100},
		{name: "over cap falls back to default", limit: 9999, want: 100},
		{name: "in range is kept", limit: 250, want: 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Search(context.Background(), entity.AuditFilter{Limit: tt.limit}); err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if gotLimit != tt.want {
				t.Errorf("limit = %d, want %d", gotLimit, tt.want)
			}
		})
	}
}

func TestAuditService_GetAuditTrail_FiltersByAppointment(t *testing.T) {
	var gotFilter entity.AuditFilter
	repo := &mockAuditRepo{
		searchFunc: func(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error) {
			gotFilter = filter
			return []*entity.AuditEvent{{EventType: entity.AuditAppealResolved}}, nil
		},
	}
	svc := NewAuditService(repo, &mockLogger{})

	events, err := svc.GetAuditTrail(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetAuditTrail() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if gotFilter.AppointmentID == nil || *gotFilter.AppointmentID != 42 {
		t.Errorf("expected filter on appointment 42, got %v", gotFilter.AppointmentID)
	}
}
