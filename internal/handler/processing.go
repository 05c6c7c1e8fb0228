package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/greenloop/waste2fertilizer/internal/model"
	"github.com/greenloop/waste2fertilizer/internal/queue"
	"github.com/greenloop/waste2fertilizer/internal/repository"
)

// ProcessingHandler tracks the conversion of collected waste into
// fertilizer. Opening a record drives the listing to in_process; closing
// it drives the listing to converted. Both transitions go through the same
// lifecycle guard as direct status updates.
type ProcessingHandler struct {
	Records  ProcessingStore
	Listings ListingStore
	Publish  func(ctx context.Context, ev queue.ListingStatusChangedEvent) error
}

func NewProcessingHandler(records ProcessingStore, listings ListingStore, publish func(context.Context, queue.ListingStatusChangedEvent) error) *ProcessingHandler {
	return &ProcessingHandler{Records: records, Listings: listings, Publish: publish}
}

type createProcessingReq struct {
	WasteListingID string     `json:"wasteListingId"`
	ProcessStart   *time.Time `json:"processStartDate"`
	CurrentStage   string     `json:"currentStage"`
	ExpectedYield  float64    `json:"expectedYield"`
	Notes          string     `json:"notes"`
}

func (r createProcessingReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.WasteListingID, validation.Required),
		validation.Field(&r.CurrentStage, validation.Required),
		validation.Field(&r.ExpectedYield, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

// Create opens a processing record for a collected listing and moves the
// listing to in_process.
func (h *ProcessingHandler) Create(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}
	var req createProcessingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Listings.GetByID(ctx, req.WasteListingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create processing record"})
	}
	if !l.AllowStatusChange(model.StatusInProcess, claims.UserID, claims.Role) {
		if !l.Status.CanTransition(model.StatusInProcess) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "listing is not collected"})
		}
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	now := time.Now().UTC()
	start := now
	if req.ProcessStart != nil {
		start = *req.ProcessStart
	}
	rec := model.ProcessingRecord{
		ID:             uuid.NewString(),
		WasteListingID: l.ID,
		ManufacturerID: claims.UserID,
		ProcessStart:   start,
		CurrentStage:   req.CurrentStage,
		ExpectedYield:  req.ExpectedYield,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.Records.Create(ctx, &rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create processing record"})
	}

	h.transitionListing(ctx, &l, model.StatusInProcess, claims.UserID)
	return c.JSON(http.StatusCreated, rec)
}

type updateProcessingReq struct {
	CurrentStage   *string               `json:"currentStage"`
	ProcessEnd     *time.Time            `json:"processEndDate"`
	ActualYield    *float64              `json:"actualYield"`
	QualityMetrics *model.QualityMetrics `json:"qualityMetrics"`
	Notes          *string               `json:"notes"`
}

// Update advances a processing record. Setting the end date completes the
// conversion and moves the listing to converted.
func (h *ProcessingHandler) Update(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}
	var req updateProcessingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Records.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Processing record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update processing record"})
	}
	if claims.UserID != rec.ManufacturerID && claims.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	completed := rec.ProcessEnd == nil && req.ProcessEnd != nil
	if req.CurrentStage != nil {
		rec.CurrentStage = *req.CurrentStage
	}
	if req.ProcessEnd != nil {
		rec.ProcessEnd = req.ProcessEnd
	}
	if req.ActualYield != nil {
		rec.ActualYield = *req.ActualYield
	}
	if req.QualityMetrics != nil {
		rec.QualityMetrics = req.QualityMetrics
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := h.Records.Update(ctx, &rec); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Processing record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update processing record"})
	}

	if completed {
		if l, err := h.Listings.GetByID(ctx, rec.WasteListingID); err == nil &&
			l.AllowStatusChange(model.StatusConverted, claims.UserID, claims.Role) {
			h.transitionListing(ctx, &l, model.StatusConverted, claims.UserID)
		}
	}
	return c.JSON(http.StatusOK, rec)
}

// My returns the manufacturer's processing records.
func (h *ProcessingHandler) My(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	records, err := h.Records.ListByManufacturer(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch processing records"})
	}
	return c.JSON(http.StatusOK, records)
}

// GetByID returns one record, visible to its manufacturer or an admin.
func (h *ProcessingHandler) GetByID(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Records.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Processing record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch processing record"})
	}
	if claims.UserID != rec.ManufacturerID && claims.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	return c.JSON(http.StatusOK, rec)
}

// transitionListing applies an already-authorized lifecycle edge and
// publishes the event. Persistence errors here are logged by the caller's
// response path; the record write has already succeeded.
func (h *ProcessingHandler) transitionListing(ctx context.Context, l *model.WasteListing, to model.WasteStatus, changedBy string) {
	from := l.Status
	l.Status = to
	l.UpdatedAt = time.Now().UTC()
	if err := h.Listings.Update(ctx, l); err != nil {
		return
	}
	if h.Publish != nil {
		_ = h.Publish(ctx, queue.ListingStatusChangedEvent{
			ListingID:      l.ID,
			DonorID:        l.DonorID,
			DonorName:      l.DonorName,
			ManufacturerID: l.ManufacturerID,
			Title:          l.Title,
			WasteType:      string(l.WasteType),
			Quantity:       l.Quantity,
			FromStatus:     string(from),
			ToStatus:       string(to),
			ChangedBy:      changedBy,
			ChangedAt:      l.UpdatedAt.Format(time.RFC3339),
		})
	}
}
