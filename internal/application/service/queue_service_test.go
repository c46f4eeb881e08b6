package service

import (
	"context"
	"testing"
	"time"

	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

func queueAppeal(id int64, priority entity.Priority, slaDeadline time.Time) *entity.Appeal {
	return &entity.Appeal{
		ID:           id,
		AppointmentID: id,
		AppealerID:   5,
		AppealerRole: entity.RoleHomeowner,
		Status:       entity.AppealStatusUnderReview,
		Priority:     priority,
		Description:  "contesting the cancellation fee",
		SubmittedAt:  slaDeadline.Add(-entity.AppealSLA),
		SLADeadline:  slaDeadline,
	}
}

func TestQueueService_Get_SortOrder(t *testing.T) {
	now := time.Now()
	appealRepo := &mockAppealRepo{
		listOpenFunc: func(ctx context.Context) ([]*entity.Appeal, error) {
			return []*entity.Appeal{
				// normal priority, already past its SLA
				queueAppeal(1, entity.PriorityNormal, now.Add(-2*time.Hour)),
				// urgent priority, still inside its SLA
				queueAppeal(2, entity.PriorityUrgent, now.Add(10*time.Hour)),
				// high priority, past SLA
				queueAppeal(3, entity.PriorityHigh, now.Add(-1*time.Hour)),
				// high priority, inside SLA, earlier deadline than appeal 5
				queueAppeal(4, entity.PriorityHigh, now.Add(3*time.Hour)),
				// high priority, inside SLA, later deadline
				queueAppeal(5, entity.PriorityHigh, now.Add(8*time.Hour)),
			}, nil
		},
	}
	svc := NewQueueService(appealRepo, &mockAdjustmentRepo{}, &mockUserStore{}, &mockLogger{})

	page, err := svc.Get(context.Background(), QueueFilter{})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if page.Total != 5 {
		t.Fatalf("total = %d, want 5", page.Total)
	}

	// Priority dominates SLA: the urgent case outranks every past-SLA case.
	// Within a priority, past-SLA first, then earliest deadline.
	wantOrder := []int64{2, 3, 4, 5, 1}
	for i, want := range wantOrder {
		if page.Cases[i].ID != want {
			t.Errorf("position %d: case %d, want %d", i, page.Cases[i].ID, want)
		}
	}
}

func TestQueueService_Get_CaseTypeIsolation(t *testing.T) {
	appealRepo := &mockAppealRepo{
		listOpenFunc: func(ctx context.Context) ([]*entity.Appeal, error) {
			t.Error("appeal source must not be read for an adjustment-only query")
			return nil, nil
		},
	}
	adjustmentRepo := &mockAdjustmentRepo{
		listPendingFunc: func(ctx context.Context) ([]*entity.AdjustmentCase, error) {
			return []*entity.AdjustmentCase{pendingCase(4500)}, nil
		},
	}
	svc := NewQueueService(appealRepo, adjustmentRepo, &mockUserStore{}, &mockLogger{})

	page, err := svc.Get(context.Background(), QueueFilter{CaseType: entity.CaseTypeAdjustment})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(page.Cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(page.Cases))
	}
	if page.Cases[0].CaseNumber != "ADJ-000003" {
		t.Errorf("case number = %s, want ADJ-000003", page.Cases[0].CaseNumber)
	}
}

func TestQueueService_Get_SearchBeforePagination(t *testing.T) {
	now := time.Now()
	appealRepo := &mockAppealRepo{
		listOpenFunc: func(ctx context.Context) ([]*entity.Appeal, error) {
			appeals := []*entity.Appeal{
				queueAppeal(1, entity.PriorityNormal, now.Add(time.Hour)),
				queueAppeal(2, entity.PriorityNormal, now.Add(2*time.Hour)),
				queueAppeal(3, entity.PriorityNormal, now.Add(3*time.Hour)),
			}
			appeals[1].Description = "cleaner never showed up"
			return appeals, nil
		},
	}
	svc := NewQueueService(appealRepo, &mockAdjustmentRepo{}, &mockUserStore{}, &mockLogger{})

	page, err := svc.Get(context.Background(), QueueFilter{Search: "never showed", Limit: 10})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if page.Total != 1 || len(page.Cases) != 1 {
		t.Fatalf("total/len = %d/%d, want 1/1", page.Total, len(page.Cases))
	}
	if page.Cases[0].ID != 2 {
		t.Errorf("case = %d, want 2", page.Cases[0].ID)
	}
}

func TestQueueService_Get_SearchByCaseNumber(t *testing.T) {
	now := time.Now()
	appealRepo := &mockAppealRepo{
		listOpenFunc: func(ctx context.Context) ([]*entity.Appeal, error) {
			return []*entity.Appeal{
				queueAppeal(7, entity.PriorityNormal, now.Add(time.Hour)),
				queueAppeal(8, entity.PriorityNormal, now.Add(time.Hour)),
			}, nil
		},
	}
	svc := NewQueueService(appealRepo, &mockAdjustmentRepo{}, &mockUserStore{}, &mockLogger{})

	page, err := svc.Get(context.Background(), QueueFilter{Search: "apl-000008"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(page.Cases) != 1 || page.Cases[0].ID != 8 {
		t.Fatalf("expected only APL-000008, got %d cases", len(page.Cases))
	}
}

func TestQueueService_Get_Pagination(t *testing.T) {
	now := time.Now()
	appealRepo := &mockAppealRepo{
		listOpenFunc: func(ctx context.Context) ([]*entity.Appeal, error) {
			var appeals []*entity.Appeal
			for i := int64(1); i <= 5; i++ {
				appeals = append(appeals, queueAppeal(i, entity.PriorityNormal, now.Add(time.Duration(i)*time.Hour)))
			}
			return appeals, nil
		},
	}
	svc := NewQueueService(appealRepo, &mockAdjustmentRepo{}, &mockUserStore{}, &mockLogger{})

	page, err := svc.Get(context.Background(), QueueFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if page.Total != 5 {
		t.Errorf("total = %d, want 5", page.Total)
	}
	if len(page.Cases) != 2 {
		t.Fatalf("page size = %d, want 2", len(page.Cases))
	}
	if page.Cases[0].ID != 3 || page.Cases[1].ID != 4 {
		t.Errorf("page = [%d, %d], want [3, 4]", page.Cases[0].ID, page.Cases[1].ID)
	}
}

func TestQueueService_Get_OffsetBeyondEnd(t *testing.T) {
	now := time.Now()
	appealRepo := &mockAppealRepo{
		listOpenFunc: func(ctx context.Context) ([]*entity.Appeal, error) {
			return []*entity.Appeal{queueAppeal(1, entity.PriorityNormal, now.Add(time.Hour))}, nil
		},
	}
	svc := NewQueueService(appealRepo, &mockAdjustmentRepo{}, &mockUserStore{}, &mockLogger{})

	page, err := svc.Get(context.Background(), QueueFilter{Limit: 10, Offset: 50})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(page.Cases) != 0 || page.Total != 1 {
		t.Errorf("len/total = %d/%d, want 0/1", len(page.Cases), page.Total)
	}
}

func TestQueueService_GetStats(t *testing.T) {
	appealRepo := &mockAppealRepo{
		countOpenFunc:    func(ctx context.Context) (int, error) { return 4, nil },
		countOverdueFunc: func(ctx context.Context, now time.Time) (int, error) { return 2, nil },
		countByPriorityFunc: func(ctx context.Context, priority entity.Priority) (int, error) {
			if priority != entity.PriorityUrgent {
				t.Errorf("priority = %s, want urgent", priority)
			}
			return 1, nil
		},
	}
	adjustmentRepo := &mockAdjustmentRepo{
		countPendingFunc: func(ctx context.Context) (int, error) { return 3, nil },
		countExpiredFunc: func(ctx context.Context, now time.Time) (int, error) { return 1, nil },
	}
	svc := NewQueueService(appealRepo, adjustmentRepo, &mockUserStore{}, &mockLogger{})

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if stats.Appeals.Pending != 4 || stats.Appeals.Overdue != 2 || stats.Appeals.Urgent != 1 {
		t.Errorf("appeals = %+v, want pending=4 overdue=2 urgent=1", stats.Appeals)
	}
	if stats.Adjustments.Pending != 3 || stats.Adjustments.Overdue != 1 {
		t.Errorf("adjustments = %+v, want pending=3 overdue=1", stats.Adjustments)
	}
	if stats.Total.Pending != 7 || stats.Total.Overdue != 3 || stats.Total.Urgent != 1 {
		t.Errorf("total = %+v, want pending=7 overdue=3 urgent=1", stats.Total)
	}
}
