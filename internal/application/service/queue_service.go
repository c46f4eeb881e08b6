package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// QueueFilter narrows the merged conflict queue. Zero values mean no filter.
type QueueFilter struct {
	CaseType   entity.CaseType
	Status     string
	Priority   entity.Priority
	AssignedTo *int64
	Search     string
	Limit      int
	Offset     int
}

// QueuePage is one page of the merged queue plus the pre-pagination total.
type QueuePage struct {
	Cases []entity.ConflictCase `json:"cases"`
	Total int                   `json:"total"`
}

// WorkflowStats are one workflow's contribution to the queue statistics.
type WorkflowStats struct {
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
	Urgent  int `json:"urgent"`
}

// QueueStats aggregates both workflows independently and sums them.
type QueueStats struct {
	Appeals     WorkflowStats `json:"appeals"`
	Adjustments WorkflowStats `json:"adjustments"`
	Total       WorkflowStats `json:"total"`
}

// QueueService merges open appeals and pending adjustment cases into one
// prioritized review queue.
type QueueService interface {
	Get(ctx context.Context, filter QueueFilter) (*QueuePage, error)
	GetStats(ctx context.Context) (*QueueStats, error)
}

type queueServiceImpl struct {
	appealRepo     port.AppealRepository
	adjustmentRepo port.AdjustmentRepository
	userStore      port.UserStore
	logger         Logger
}

// NewQueueService creates a new QueueService
func NewQueueService(
	appealRepo port.AppealRepository,
	adjustmentRepo port.AdjustmentRepository,
	userStore port.UserStore,
	logger Logger,
) QueueService {
	return &queueServiceImpl{
		appealRepo:     appealRepo,
		adjustmentRepo: adjustmentRepo,
		userStore:      userStore,
		logger:         logger,
	}
}

// Get returns one page of the merged queue. A caseType filter short-circuits
// the other data source entirely. Search narrows the full merged set before
// pagination, so the returned total reflects the filtered set.
func (s *queueServiceImpl) Get(ctx context.Context, filter QueueFilter) (*QueuePage, error) {
	if filter.CaseType != "" && !filter.CaseType.IsValid() {
		return nil, fmt.Errorf("%w: unknown case type %q", entity.ErrValidation, filter.CaseType)
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	now := time.Now()
	var cases []entity.ConflictCase

	if filter.CaseType == "" || filter.CaseType == entity.CaseTypeAppeal {
		appeals, err := s.appealRepo.ListOpen(ctx)
		if err != nil {
			return nil, fmt.Errorf("list open appeals: %w", err)
		}
		names := s.resolveNames(ctx, appealPartyIDs(appeals))
		for _, a := range appeals {
			cases = append(cases, entity.NormalizeAppeal(a, names, now))
		}
	}

	if filter.CaseType == "" || filter.CaseType == entity.CaseTypeAdjustment {
		pending, err := s.adjustmentRepo.ListPending(ctx)
		if err != nil {
			return nil, fmt.Errorf("list pending adjustments: %w", err)
		}
		names := s.resolveNames(ctx, adjustmentPartyIDs(pending))
		for _, c := range pending {
			cases = append(cases, entity.NormalizeAdjustment(c, names, now))
		}
	}

	cases = applyFilter(cases, filter)
	sortQueue(cases)

	total := len(cases)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return &QueuePage{Cases: cases[start:end], Total: total}, nil
}

// resolveNames batch-loads display names. A lookup failure degrades to blank
// names rather than failing the listing.
func (s *queueServiceImpl) resolveNames(ctx context.Context, ids []int64) map[int64]string {
	if len(ids) == 0 {
		return nil
	}
	names, err := s.userStore.GetNames(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to resolve party names", "error", err)
		return nil
	}
	return names
}

func appealPartyIDs(appeals []*entity.Appeal) []int64 {
	ids := make([]int64, 0, len(appeals))
	for _, a := range appeals {
		ids = append(ids, a.AppealerID)
	}
	return ids
}

func adjustmentPartyIDs(cases []*entity.AdjustmentCase) []int64 {
	ids := make([]int64, 0, len(cases)*2)
	for _, c := range cases {
		ids = append(ids, c.HomeownerID, c.CleanerID)
	}
	return ids
}

func applyFilter(cases []entity.ConflictCase, filter QueueFilter) []entity.ConflictCase {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	filtered := cases[:0]
	for _, c := range cases {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && c.Priority != filter.Priority {
			continue
		}
		if filter.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if search != "" && !matchesSearch(c, search) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

func matchesSearch(c entity.ConflictCase, search string) bool {
	if strings.Contains(strings.ToLower(c.CaseNumber), search) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Description), search) {
		return true
	}
	for _, p := range c.Parties {
		if p.Name != "" && strings.Contains(strings.ToLower(p.Name), search) {
			return true
		}
	}
	return false
}

// sortQueue orders by priority, then past-SLA cases first, then by the
// earliest SLA deadline. Priority dominates: an urgent case that is still
// inside its SLA outranks a normal case that has blown through it.
func sortQueue(cases []entity.ConflictCase) {
	sort.SliceStable(cases, func(i, j int) bool {
		a, b := cases[i], cases[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.IsPastSLA != b.IsPastSLA {
			return a.IsPastSLA
		}
		switch {
		case a.SLADeadline == nil:
			return false
		case b.SLADeadline == nil:
			return true
		default:
			return a.SLADeadline.Before(*b.SLADeadline)
		}
	})
}

// GetStats aggregates each workflow independently and sums the results.
func (s *queueServiceImpl) GetStats(ctx context.Context) (*QueueStats, error) {
	now := time.Now()
	stats := &QueueStats{}

	openAppeals, err := s.appealRepo.CountOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("count open appeals: %w", err)
	}
	overdueAppeals, err := s.appealRepo.CountOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("count overdue appeals: %w", err)
	}
	urgentAppeals, err := s.appealRepo.CountByPriority(ctx, entity.PriorityUrgent)
	if err != nil {
		return nil, fmt.Errorf("count urgent appeals: %w", err)
	}
	stats.Appeals = WorkflowStats{Pending: openAppeals, Overdue: overdueAppeals, Urgent: urgentAppeals}

	pendingAdjustments, err := s.adjustmentRepo.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pending adjustments: %w", err)
	}
	expiredAdjustments, err := s.adjustmentRepo.CountExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("count expired adjustments: %w", err)
	}
	stats.Adjustments = WorkflowStats{Pending: pendingAdjustments, Overdue: expiredAdjustments}

	stats.Total = WorkflowStats{
		Pending: stats.Appeals.Pending + stats.Adjustments.Pending,
		Overdue: stats.Appeals.Overdue + stats.Adjustments.Overdue,
		Urgent:  stats.Appeals.Urgent + stats.Adjustments.Urgent,
	}
	return stats, nil
}
