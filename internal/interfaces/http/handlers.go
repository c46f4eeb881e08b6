package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homeshine/conflict-engine/internal/application/service"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
	"github.com/homeshine/conflict-engine/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{services: services, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitAppealRequest is the JSON body for appeal submission
type SubmitAppealRequest struct {
	AppointmentID  int64                  `json:"appointment_id" binding:"required"`
	Category       string                 `json:"category" binding:"required"`
	Severity       string                 `json:"severity" binding:"required"`
	Description    string                 `json:"description" binding:"required"`
	ContestedItems []entity.ContestedItem `json:"contested_items"`
}

// AssignAppealRequest is the JSON body for appeal assignment
type AssignAppealRequest struct {
	AssigneeID int64 `json:"assignee_id" binding:"required"`
}

// UpdateStatusRequest is the JSON body for a workflow status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// ResolveAppealRequest is the JSON body for appeal resolution
type ResolveAppealRequest struct {
	Decision string                    `json:"decision" binding:"required"`
	Actions  []entity.ResolutionAction `json:"actions"`
	Notes    string                    `json:"notes"`
}

// ResolveAdjustmentRequest is the JSON body for adjustment resolution
type ResolveAdjustmentRequest struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes"`
}

// MoneyMovementRequest is the JSON body for refunds and payouts
type MoneyMovementRequest struct {
	CaseID      int64  `json:"case_id" binding:"required"`
	CaseType    string `json:"case_type" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Reason      string `json:"reason"`
}

// ReconcileRequest is the JSON body for a manual reconciliation run
type ReconcileRequest struct {
	BatchSize int `json:"batch_size"`
}

// QueueRequest represents query parameters for the conflict queue
type QueueRequest struct {
	CaseType   string `form:"case_type"`
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	AssignedTo *int64 `form:"assigned_to"`
	Search     string `form:"search"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// ListRequest represents limit/offset query parameters
type ListRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// AuditSearchRequest represents query parameters for audit search
type AuditSearchRequest struct {
	AppointmentID *int64 `form:"appointment_id"`
	CaseID        *int64 `form:"case_id"`
	CaseType      string `form:"case_type"`
	EventType     string `form:"event_type"`
	ActorID       *int64 `form:"actor_id"`
	From          string `form:"from"`
	To            string `form:"to"`
	Text          string `form:"q"`
	Limit         int    `form:"limit"`
	Offset        int    `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitAppeal handles POST /api/appeals
func (h *Handlers) SubmitAppeal(c *gin.Context) {
	actorID, actorRole, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req SubmitAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	appeal, err := h.services.Appeals.Submit(c.Request.Context(), service.SubmitAppealRequest{
		AppointmentID:  req.AppointmentID,
		AppealerID:     actorID,
		AppealerRole:   entity.Role(actorRole),
		Category:       entity.AppealCategory(req.Category),
		Severity:       entity.Severity(req.Severity),
		Description:    req.Description,
		ContestedItems: req.ContestedItems,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: appeal})
}

// ListAppeals handles GET /api/appeals
func (h *Handlers) ListAppeals(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	limit, offset := normalizePage(req.Limit, req.Offset)

	appeals, err := h.services.Appeals.ListAppeals(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: appeals})
}

// GetAppeal handles GET /api/appeals/:id
func (h *Handlers) GetAppeal(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	appeal, err := h.services.Appeals.GetAppeal(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: appeal})
}

// AssignAppeal handles POST /api/appeals/:id/assign
func (h *Handlers) AssignAppeal(c *gin.Context) {
	actorID, _, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req AssignAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	if err := h.services.Appeals.Assign(c.Request.Context(), id, req.AssigneeID, actorID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// UpdateAppealStatus handles POST /api/appeals/:id/status
func (h *Handlers) UpdateAppealStatus(c *gin.Context) {
	actorID, _, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	err := h.services.Appeals.UpdateStatus(c.Request.Context(), id, entity.AppealStatus(req.Status), actorID, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ResolveAppeal handles POST /api/appeals/:id/resolve
func (h *Handlers) ResolveAppeal(c *gin.Context) {
	actorID, _, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req ResolveAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	appeal, err := h.services.Appeals.Resolve(c.Request.Context(), service.ResolveAppealRequest{
		AppealID:   id,
		Decision:   entity.Decision(req.Decision),
		Actions:    req.Actions,
		Notes:      req.Notes,
		ReviewerID: actorID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: appeal})
}

// ListAdjustments handles GET /api/adjustments
func (h *Handlers) ListAdjustments(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	limit, offset := normalizePage(req.Limit, req.Offset)

	cases, err := h.services.Adjustments.ListCases(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: cases})
}

// GetAdjustment handles GET /api/adjustments/:id
func (h *Handlers) GetAdjustment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	adjCase, err := h.services.Adjustments.GetCase(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: adjCase})
}

// ResolveAdjustment handles POST /api/adjustments/:id/resolve
func (h *Handlers) ResolveAdjustment(c *gin.Context) {
	actorID, _, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req ResolveAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	adjCase, err := h.services.Adjustments.Resolve(c.Request.Context(), id, entity.Decision(req.Decision), actorID, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: adjCase})
}

// GetQueue handles GET /api/queue
func (h *Handlers) GetQueue(c *gin.Context) {
	var req QueueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	if req.CaseType != "" && !entity.CaseType(req.CaseType).IsValid() {
		h.badRequest(c, "invalid case_type")
		return
	}

	page, err := h.services.Queue.Get(c.Request.Context(), service.QueueFilter{
		CaseType:   entity.CaseType(req.CaseType),
		Status:     req.Status,
		Priority:   entity.Priority(req.Priority),
		AssignedTo: req.AssignedTo,
		Search:     req.Search,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: page})
}

// GetQueueStats handles GET /api/queue/stats
func (h *Handlers) GetQueueStats(c *gin.Context) {
	stats, err := h.services.Queue.GetStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// Refund handles POST /api/money/refund
func (h *Handlers) Refund(c *gin.Context) {
	h.moveMoney(c, h.services.Money.Refund)
}

// Payout handles POST /api/money/payout
func (h *Handlers) Payout(c *gin.Context) {
	h.moveMoney(c, h.services.Money.Payout)
}

type moneyMover func(ctx context.Context, caseID int64, caseType entity.CaseType, amountCents int64, reason string, reviewerID int64) (*entity.LedgerEntry, error)

func (h *Handlers) moveMoney(c *gin.Context, move moneyMover) {
	actorID, _, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req MoneyMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	if !entity.CaseType(req.CaseType).IsValid() {
		h.badRequest(c, "invalid case_type")
		return
	}

	entry, err := move(c.Request.Context(), req.CaseID, entity.CaseType(req.CaseType), req.AmountCents, req.Reason, actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entry})
}

// GetAppointmentLedger handles GET /api/ledger/appointments/:id
func (h *Handlers) GetAppointmentLedger(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	entries, err := h.services.Ledger.GetByAppointment(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"appointment_id": id,
			"entries":        entries,
			"balance_cents":  h.services.Ledger.CalculateBalance(entries),
		},
	})
}

// GetLedgerSummary handles GET /api/ledger/summary
func (h *Handlers) GetLedgerSummary(c *gin.Context) {
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	entries, err := h.services.Ledger.ListByTaxYear(c.Request.Context(), year)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.services.Ledger.CalculateSummary(entries),
	})
}

// RunReconciliation handles POST /api/ledger/reconcile
func (h *Handlers) RunReconciliation(c *gin.Context) {
	if _, _, ok := h.requireActor(c); !ok {
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	result, err := h.services.Ledger.Reconcile(c.Request.Context(), req.BatchSize)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ExportLedger handles GET /api/ledger/export
func (h *Handlers) ExportLedger(c *gin.Context) {
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	entries, err := h.services.Ledger.ListByTaxYear(c.Request.Context(), year)
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary := h.services.Ledger.CalculateSummary(entries)

	fileName := fmt.Sprintf("ledger-%d.xlsx", year)
	path := filepath.Join(os.TempDir(), fmt.Sprintf("ledger-%d-%d.xlsx", year, time.Now().UnixNano()))
	if err := h.services.Exporter.ExportTaxYear(year, entries, summary, path); err != nil {
		h.respondError(c, err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			h.logger.Error("Failed to remove export file", "path", path, "error", err)
		}
	}()

	c.FileAttachment(path, fileName)
}

// SearchAudit handles GET /api/audit
func (h *Handlers) SearchAudit(c *gin.Context) {
	var req AuditSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	filter := entity.AuditFilter{
		AppointmentID: req.AppointmentID,
		CaseID:        req.CaseID,
		CaseType:      entity.CaseType(req.CaseType),
		EventType:     entity.AuditEventType(req.EventType),
		ActorID:       req.ActorID,
		Text:          req.Text,
		Limit:         req.Limit,
		Offset:        req.Offset,
	}

	if req.From != "" {
		from, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			h.badRequest(c, "invalid from timestamp")
			return
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			h.badRequest(c, "invalid to timestamp")
			return
		}
		filter.To = &to
	}

	events, err := h.services.Audit.Search(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: events})
}

// GetAuditTrail handles GET /api/audit/appointments/:id
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	events, err := h.services.Audit.GetAuditTrail(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: events})
}

// requireActor extracts the acting user from the X-Actor-ID and
// X-Actor-Role headers. Mutating endpoints refuse anonymous requests.
func (h *Handlers) requireActor(c *gin.Context) (int64, string, bool) {
	idStr := c.GetHeader("X-Actor-ID")
	actorID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || actorID <= 0 {
		h.badRequest(c, "missing or invalid X-Actor-ID header")
		return 0, "", false
	}
	return actorID, c.GetHeader("X-Actor-Role"), true
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handlers) yearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2200 {
		h.badRequest(c, "missing or invalid year")
		return 0, false
	}
	return year, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// respondError maps service errors onto HTTP status codes. Validation
// failures are 400, missing records 404, workflow and state conflicts 409,
// gateway failures 502, everything else a generic 500.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrValidation):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, entity.ErrNotCancelled),
		errors.Is(err, entity.ErrWindowExpired),
		errors.Is(err, entity.ErrDuplicateOpenAppeal),
		errors.Is(err, entity.ErrInvalidAssignee),
		errors.Is(err, entity.ErrClosedAppeal),
		errors.Is(err, entity.ErrCaseClosed),
		errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, entity.ErrGateway):
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
