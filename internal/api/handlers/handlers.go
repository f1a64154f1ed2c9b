// Package handlers exposes the engine over HTTP. Handlers are thin:
// they parse, delegate to the projection/aggregation services, and
// translate domain errors to status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vkopylov/finplan/internal/aggregation"
	"github.com/vkopylov/finplan/internal/api/middleware"
	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/jobs"
	"github.com/vkopylov/finplan/internal/projection"
	"github.com/vkopylov/finplan/internal/store"
)

// userID extracts the required user_id query parameter.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("user_id")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return "", false
	}
	return id, true
}

// writeDomainError maps validation and not-found errors onto 4xx codes;
// everything else is a 500.
func writeDomainError(w http.ResponseWriter, log zerolog.Logger, err error, action string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	default:
		log.Error().Err(err).Msg("Failed to " + action)
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// MonthsHandler serves the combined month view.
type MonthsHandler struct {
	stores    store.Stores
	generator *projection.Generator
	engine    *aggregation.Engine
	log       zerolog.Logger
}

// NewMonthsHandler creates a month-view handler.
func NewMonthsHandler(stores store.Stores, generator *projection.Generator, engine *aggregation.Engine, log zerolog.Logger) *MonthsHandler {
	return &MonthsHandler{stores: stores, generator: generator, engine: engine, log: log}
}

// GetMonth handles GET /api/months/:month. The response carries the
// month's actual transactions, the virtual projections, and the
// aggregate in one payload.
func (h *MonthsHandler) GetMonth(w http.ResponseWriter, r *http.Request, monthKey string) {
	ctx := r.Context()

	user, ok := userID(w, r)
	if !ok {
		return
	}
	month, err := domain.ParseMonthKey(monthKey)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	in, err := aggregation.LoadInputs(ctx, h.stores, h.generator, user, month)
	if err != nil {
		writeDomainError(w, h.log, err, "load month")
		return
	}
	aggregate := h.engine.Aggregate(ctx, user, month, in)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"month":        month.String(),
		"transactions": in.Actual,
		"projections":  in.Projected,
		"aggregate":    aggregate,
	})
}

// RecurringHandler handles recurring-definition CRUD.
type RecurringHandler struct {
	recurring store.RecurringRepository
	clock     clock.Clock
	log       zerolog.Logger
}

// NewRecurringHandler creates a recurring-definition handler.
func NewRecurringHandler(recurring store.RecurringRepository, clk clock.Clock, log zerolog.Logger) *RecurringHandler {
	return &RecurringHandler{recurring: recurring, clock: clk, log: log}
}

// ListDefinitions handles GET /api/recurring
func (h *RecurringHandler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	defs, err := h.recurring.ListDefinitions(r.Context(), user)
	if err != nil {
		writeDomainError(w, h.log, err, "list definitions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"definitions": defs,
		"count":       len(defs),
	})
}

// CreateDefinition handles POST /api/recurring
func (h *RecurringHandler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	var def domain.RecurringDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := h.clock.Now()
	def.ID = uuid.NewString()
	def.CreatedAt = now
	def.UpdatedAt = now
	if err := def.Validate(); err != nil {
		writeDomainError(w, h.log, err, "create definition")
		return
	}

	if err := h.recurring.SaveDefinition(r.Context(), &def); err != nil {
		writeDomainError(w, h.log, err, "create definition")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, &def)
}

// GetDefinition handles GET /api/recurring/:id
func (h *RecurringHandler) GetDefinition(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	def, err := h.recurring.GetDefinition(r.Context(), user, id)
	if err != nil {
		writeDomainError(w, h.log, err, "get definition")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, def)
}

// UpdateDefinition handles PUT /api/recurring/:id. The derived
// scheduling metadata of the stored record is preserved; owner edits
// never reset it.
func (h *RecurringHandler) UpdateDefinition(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	var def domain.RecurringDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	def.ID = id

	existing, err := h.recurring.GetDefinition(ctx, def.OwnerID, id)
	if err != nil {
		writeDomainError(w, h.log, err, "update definition")
		return
	}

	def.LastGeneratedDate = existing.LastGeneratedDate
	def.NextDueDate = existing.NextDueDate
	def.TotalOccurrences = existing.TotalOccurrences
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = h.clock.Now()
	if err := def.Validate(); err != nil {
		writeDomainError(w, h.log, err, "update definition")
		return
	}

	if err := h.recurring.SaveDefinition(ctx, &def); err != nil {
		writeDomainError(w, h.log, err, "update definition")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, &def)
}

// DeleteDefinition handles DELETE /api/recurring/:id. Historical
// transactions survive with their back-reference cleared.
func (h *RecurringHandler) DeleteDefinition(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.recurring.DeleteDefinition(r.Context(), user, id); err != nil {
		writeDomainError(w, h.log, err, "delete definition")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// EngineHandler enqueues asynchronous engine work.
type EngineHandler struct {
	publisher jobs.Publisher
	clock     clock.Clock
	log       zerolog.Logger
}

// NewEngineHandler creates a handler that publishes engine jobs.
func NewEngineHandler(publisher jobs.Publisher, clk clock.Clock, log zerolog.Logger) *EngineHandler {
	return &EngineHandler{publisher: publisher, clock: clk, log: log}
}

// EnqueueMaterialize handles POST /api/materialize. Only the current
// calendar month is accepted; the write itself runs on the job queue.
func (h *EngineHandler) EnqueueMaterialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Month  string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	month := domain.MonthKeyFor(h.clock.Now())
	if req.Month != "" {
		parsed, err := domain.ParseMonthKey(req.Month)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		if parsed != month {
			middleware.WriteError(w, http.StatusBadRequest, "only the current month can be materialized")
			return
		}
	}

	job := &jobs.EngineJob{
		Type:   jobs.JobTypeMaterializeMonth,
		UserID: req.UserID,
		Month:  month.String(),
	}
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue materialization")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue materialization")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"month":  month.String(),
		"status": string(job.Status),
	})
}

// EnqueueMigrate handles POST /api/migrate.
func (h *EngineHandler) EnqueueMigrate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	job := &jobs.EngineJob{
		Type:   jobs.JobTypeMigrateUser,
		UserID: req.UserID,
	}
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue migration")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue migration")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// NetWorthHandler serves net-worth reads and the asset/debt writes
// that trigger a debounced recompute.
type NetWorthHandler struct {
	stores    store.Stores
	scheduler *aggregation.NetWorthScheduler
	log       zerolog.Logger
}

// NewNetWorthHandler creates a net-worth handler.
func NewNetWorthHandler(stores store.Stores, scheduler *aggregation.NetWorthScheduler, log zerolog.Logger) *NetWorthHandler {
	return &NetWorthHandler{stores: stores, scheduler: scheduler, log: log}
}

// GetNetWorth handles GET /api/networth
func (h *NetWorthHandler) GetNetWorth(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	snap, err := h.stores.NetWorth.GetSnapshot(r.Context(), user)
	if err != nil {
		writeDomainError(w, h.log, err, "get net worth")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, snap)
}

// SaveAsset handles POST /api/assets
func (h *NetWorthHandler) SaveAsset(w http.ResponseWriter, r *http.Request) {
	var asset domain.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if asset.OwnerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}

	if err := h.stores.Assets.SaveAsset(r.Context(), &asset); err != nil {
		writeDomainError(w, h.log, err, "save asset")
		return
	}
	h.scheduler.Schedule(asset.OwnerID)
	middleware.WriteJSON(w, http.StatusOK, &asset)
}

// SaveDebt handles POST /api/debts
func (h *NetWorthHandler) SaveDebt(w http.ResponseWriter, r *http.Request) {
	var debt domain.Debt
	if err := json.NewDecoder(r.Body).Decode(&debt); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if debt.OwnerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	if debt.ID == "" {
		debt.ID = uuid.NewString()
	}

	if err := h.stores.Debts.SaveDebt(r.Context(), &debt); err != nil {
		writeDomainError(w, h.log, err, "save debt")
		return
	}
	h.scheduler.Schedule(debt.OwnerID)
	middleware.WriteJSON(w, http.StatusOK, &debt)
}

// JobsHandler exposes job status reads.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/:jobId
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, h.log, err, "get job")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		UserID: r.URL.Query().Get("user_id"),
		Type:   jobs.JobType(r.URL.Query().Get("type")),
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeDomainError(w, h.log, err, "list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}
