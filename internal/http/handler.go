package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldwise/visits-service/internal/http/middleware"
	"github.com/fieldwise/visits-service/internal/model"
	"github.com/fieldwise/visits-service/internal/service"
)

type Handler struct {
	series    *service.SeriesService
	assign    *service.AssignService
	lifecycle *service.LifecycleService
	queries   *service.QueryService
	reports   *service.ReportService
	log       zerolog.Logger
}

func NewHandler(
	series *service.SeriesService,
	assign *service.AssignService,
	lifecycle *service.LifecycleService,
	queries *service.QueryService,
	reports *service.ReportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		series:    series,
		assign:    assign,
		lifecycle: lifecycle,
		queries:   queries,
		reports:   reports,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/contracts/:id/visits/rebuild", h.rebuildSeries)
	protected.POST("/contracts/:id/visits/assign", h.assignBatch)
	protected.POST("/visits", h.createVisit)
	protected.POST("/visits/:id/assign", h.assignOne)
	protected.PATCH("/visits/:id", h.updateVisit)
	protected.POST("/workers/:id/release", h.releaseWorker)
	protected.POST("/clients/:id/visits/cancel", h.cancelClientVisits)

	protected.GET("/visits", h.listVisits)
	protected.GET("/billing/preview", h.billingPreview)
	protected.GET("/search", h.searchVisits)
	protected.POST("/schedule/reassign", h.reassignReleased)
	protected.POST("/schedule/export", h.exportSchedule)
	protected.POST("/schedule/export/daysheet", h.exportDaySheet)
}

func (h *Handler) mutatingPrincipal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, false
	}
	if !principal.CanMutate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return model.Principal{}, false
	}
	return principal, true
}

type rebuildSeriesRequest struct {
	KeepExisting bool    `json:"keep_existing"`
	StartDate    *string `json:"start_date"`
}

func (h *Handler) rebuildSeries(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	var req rebuildSeriesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	input := service.RebuildInput{
		ContractID:   contractID,
		KeepExisting: req.KeepExisting,
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		input.StartDate = &start
	}

	created, err := h.series.Rebuild(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (h *Handler) assignOne(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid visit id"})
		return
	}

	result, err := h.assign.AssignOne(c.Request.Context(), visitID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) assignBatch(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	result, err := h.assign.AssignBatch(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createVisitRequest struct {
	ContractID string  `json:"contract_id" binding:"required"`
	WorkerID   *string `json:"worker_id"`
	Date       string  `json:"date" binding:"required"`
	Status     *string `json:"status"`
	Comment    *string `json:"comment"`
}

func (h *Handler) createVisit(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	var req createVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_id"})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	input := service.CreateVisitInput{
		ContractID: contractID,
		Date:       date,
		Comment:    req.Comment,
	}
	if req.WorkerID != nil {
		workerID, err := uuid.Parse(*req.WorkerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_id"})
			return
		}
		input.WorkerID = &workerID
	}
	if req.Status != nil {
		status, err := model.ParseVisitStatus(*req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.Status = &status
	}

	visit, err := h.series.CreateAdHoc(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, visit)
}

type updateVisitRequest struct {
	Date         *string `json:"date"`
	WorkerID     *string `json:"worker_id"`
	Status       *string `json:"status"`
	Comment      *string `json:"comment"`
	Invoiced     *bool   `json:"invoiced"`
	CancelReason *string `json:"cancel_reason"`
}

func (h *Handler) updateVisit(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid visit id"})
		return
	}

	var req updateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateVisitInput{
		Comment:      req.Comment,
		Invoiced:     req.Invoiced,
		CancelReason: req.CancelReason,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		input.Date = &date
	}
	if req.WorkerID != nil {
		// An empty worker_id clears the assignment.
		if strings.TrimSpace(*req.WorkerID) == "" {
			nilID := uuid.Nil
			input.WorkerID = &nilID
		} else {
			workerID, err := uuid.Parse(*req.WorkerID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_id"})
				return
			}
			input.WorkerID = &workerID
		}
	}
	if req.Status != nil {
		status, err := model.ParseVisitStatus(*req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.Status = &status
	}

	visit, err := h.lifecycle.UpdateVisit(c.Request.Context(), visitID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

type releaseWorkerRequest struct {
	Reason string  `json:"reason" binding:"required"`
	From   *string `json:"from"`
	To     *string `json:"to"`
}

func (h *Handler) releaseWorker(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	workerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker id"})
		return
	}

	var req releaseWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var from, to *time.Time
	if req.From != nil {
		parsed, err := parseDate(*req.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		from = &parsed
	}
	if req.To != nil {
		parsed, err := parseDate(*req.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		to = &parsed
	}

	released, err := h.lifecycle.ReleaseForWorker(
		c.Request.Context(), workerID, service.ReleaseReason(req.Reason), from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released, "count": len(released)})
}

func (h *Handler) reassignReleased(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	result, err := h.lifecycle.ReassignReleased(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelClientRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelClientVisits(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}

	var req cancelClientRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	cancelled, err := h.lifecycle.CancelAllForClient(c.Request.Context(), clientID, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func (h *Handler) listVisits(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	query := service.VisitQuery{RangeLabel: c.Query("range")}

	if raw := c.Query("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		query.Date = &date
	}
	if raw := c.Query("worker_id"); raw != "" {
		workerID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_id"})
			return
		}
		query.WorkerID = &workerID
	}
	if raw := c.Query("status"); raw != "" {
		status, err := model.ParseVisitStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		query.Status = &status
	}
	if raw := c.Query("week"); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week"})
			return
		}
		query.WeekNumber = &week
	}

	// Workers only see their own schedule.
	if principal.IsWorker() {
		if principal.WorkerID == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		query.WorkerID = principal.WorkerID
	}

	visits, err := h.queries.Visits(c.Request.Context(), query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visits, "count": len(visits)})
}

func (h *Handler) billingPreview(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		date = &parsed
	}

	visits, err := h.queries.BillingPreview(c.Request.Context(), c.Query("range"), date, c.Query("tag"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visits, "count": len(visits)})
}

func (h *Handler) searchVisits(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	visits, err := h.queries.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visits, "count": len(visits)})
}

type exportScheduleRequest struct {
	Range string  `json:"range"`
	Date  *string `json:"date"`
}

func (h *Handler) exportSchedule(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	var req exportScheduleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var date *time.Time
	if req.Date != nil {
		parsed, err := parseDate(*req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		date = &parsed
	}

	result, err := h.reports.ExportSchedule(c.Request.Context(), req.Range, date)
	if err != nil {
		h.handleError(c, err)
		return
	}

	const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxType, result.Content)
}

type exportDaySheetRequest struct {
	WorkerID string `json:"worker_id" binding:"required"`
	Date     string `json:"date" binding:"required"`
}

func (h *Handler) exportDaySheet(c *gin.Context) {
	if _, ok := h.mutatingPrincipal(c); !ok {
		return
	}

	var req exportDaySheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_id"})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	result, err := h.reports.ExportDaySheet(c.Request.Context(), workerID, date)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"02-01-2006",
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
