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

// WasteHandler owns the listing lifecycle endpoints. Publish is called on
// every accepted status change; broker failures are logged by the
// publisher and ignored here so the request path never blocks on RabbitMQ.
type WasteHandler struct {
	Listings ListingStore
	Users    UserStore
	Publish  func(ctx context.Context, ev queue.ListingStatusChangedEvent) error
}

func NewWasteHandler(listings ListingStore, users UserStore, publish func(context.Context, queue.ListingStatusChangedEvent) error) *WasteHandler {
	return &WasteHandler{Listings: listings, Users: users, Publish: publish}
}

type createListingReq struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	WasteType           string    `json:"wasteType"`
	Quantity            float64   `json:"quantity"`
	Location            string    `json:"location"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	AvailableFrom       time.Time `json:"availableFrom"`
	ExpiryDate          time.Time `json:"expiryDate"`
	Images              []string  `json:"images"`
	EstimatedValue      float64   `json:"estimatedValue"`
	SpecialInstructions string    `json:"specialInstructions"`
}

func (r createListingReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.WasteType, validation.Required, validation.By(wasteTypeRule)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Location, validation.Required),
		validation.Field(&r.AvailableFrom, validation.Required),
		validation.Field(&r.ExpiryDate, validation.Required),
	)
}

func wasteTypeRule(value interface{}) error {
	s, _ := value.(string)
	if !model.ValidWasteType(s) {
		return errors.New("unknown waste type")
	}
	return nil
}

// Create registers a new listing for the authenticated donor. Ownership,
// status, unit and timestamps come from the server, never the payload.
func (h *WasteHandler) Create(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}
	var req createListingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	donor, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Valid token for an account that no longer exists.
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create listing"})
	}

	now := time.Now().UTC()
	l := model.WasteListing{
		ID:                  uuid.NewString(),
		DonorID:             claims.UserID,
		DonorName:           donor.Name,
		Title:               req.Title,
		Description:         req.Description,
		WasteType:           model.WasteType(req.WasteType),
		Quantity:            req.Quantity,
		Location:            req.Location,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		AvailableFrom:       req.AvailableFrom,
		ExpiryDate:          req.ExpiryDate,
		Images:              req.Images,
		EstimatedValue:      req.EstimatedValue,
		SpecialInstructions: req.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	l.Normalize()

	if err := h.Listings.Create(ctx, &l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create listing"})
	}
	return c.JSON(http.StatusCreated, l)
}

// withDerivedExpiry overlays the read-time expiry rule: a still-listed
// listing past its expiry date is shown as expired without rewriting the
// row. Transitions keep operating on the stored status.
func withDerivedExpiry(l model.WasteListing, now time.Time) model.WasteListing {
	if l.Expired(now) {
		l.Status = model.StatusExpired
	}
	return l
}

// List returns every listing, for any authenticated caller.
func (h *WasteHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	listings, err := h.Listings.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch listings"})
	}
	now := time.Now().UTC()
	for i := range listings {
		listings[i] = withDerivedExpiry(listings[i], now)
	}
	return c.JSON(http.StatusOK, listings)
}

// My returns the caller's own listings.
func (h *WasteHandler) My(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	listings, err := h.Listings.ListByDonor(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch listings"})
	}
	now := time.Now().UTC()
	for i := range listings {
		listings[i] = withDerivedExpiry(listings[i], now)
	}
	return c.JSON(http.StatusOK, listings)
}

// GetByID fetches one listing by its business identifier.
func (h *WasteHandler) GetByID(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Listings.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch listing"})
	}
	return c.JSON(http.StatusOK, withDerivedExpiry(l, time.Now().UTC()))
}

type updateListingReq struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	WasteType           *string    `json:"wasteType"`
	Quantity            *float64   `json:"quantity"`
	Location            *string    `json:"location"`
	Latitude            *float64   `json:"latitude"`
	Longitude           *float64   `json:"longitude"`
	AvailableFrom       *time.Time `json:"availableFrom"`
	ExpiryDate          *time.Time `json:"expiryDate"`
	Images              *[]string  `json:"images"`
	EstimatedValue      *float64   `json:"estimatedValue"`
	SpecialInstructions *string    `json:"specialInstructions"`
	CollectionNotes     *string    `json:"collectionNotes"`
	Status              *string    `json:"status"`
}

// editsFields reports whether the patch touches anything besides status
// and collection notes. Collection notes ride along with status changes so
// a manufacturer can annotate the pickup.
func (r *updateListingReq) editsFields() bool {
	return r.Title != nil || r.Description != nil || r.WasteType != nil ||
		r.Quantity != nil || r.Location != nil || r.Latitude != nil ||
		r.Longitude != nil || r.AvailableFrom != nil || r.ExpiryDate != nil ||
		r.Images != nil || r.EstimatedValue != nil || r.SpecialInstructions != nil
}

// Update merges the patch into the listing. Field edits are restricted to
// the owning donor (or admin); status changes must follow the lifecycle
// graph and its actor rules. A manufacturer taking a listed listing
// becomes its assigned manufacturer.
func (h *WasteHandler) Update(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}
	var req updateListingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Listings.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update listing"})
	}

	isOwner := claims.UserID == l.DonorID || claims.Role == model.RoleAdmin
	if req.editsFields() && !isOwner {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	fromStatus := l.Status
	statusChanged := false
	if req.Status != nil && model.WasteStatus(*req.Status) != l.Status {
		to := model.WasteStatus(*req.Status)
		if !l.Status.CanTransition(to) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "invalid status transition"})
		}
		if !l.AllowStatusChange(to, claims.UserID, claims.Role) {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		}
		if l.Status == model.StatusListed && to == model.StatusRequested {
			l.ManufacturerID = claims.UserID
		}
		l.Status = to
		statusChanged = true
	}

	// Collection notes may ride along with an authorized status change;
	// on their own they are a field edit like any other.
	if req.CollectionNotes != nil && !isOwner && !statusChanged {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	applyListingPatch(&l, &req)
	l.UpdatedAt = time.Now().UTC()

	if err := h.Listings.Update(ctx, &l); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update listing"})
	}

	if statusChanged && h.Publish != nil {
		_ = h.Publish(ctx, queue.ListingStatusChangedEvent{
			ListingID:      l.ID,
			DonorID:        l.DonorID,
			DonorName:      l.DonorName,
			ManufacturerID: l.ManufacturerID,
			Title:          l.Title,
			WasteType:      string(l.WasteType),
			Quantity:       l.Quantity,
			FromStatus:     string(fromStatus),
			ToStatus:       string(l.Status),
			ChangedBy:      claims.UserID,
			ChangedAt:      l.UpdatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, l)
}

func applyListingPatch(l *model.WasteListing, r *updateListingReq) {
	if r.Title != nil {
		l.Title = *r.Title
	}
	if r.Description != nil {
		l.Description = *r.Description
	}
	if r.WasteType != nil && model.ValidWasteType(*r.WasteType) {
		l.WasteType = model.WasteType(*r.WasteType)
	}
	if r.Quantity != nil && *r.Quantity > 0 {
		l.Quantity = *r.Quantity
	}
	if r.Location != nil {
		l.Location = *r.Location
	}
	if r.Latitude != nil {
		l.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		l.Longitude = *r.Longitude
	}
	if r.AvailableFrom != nil {
		l.AvailableFrom = *r.AvailableFrom
	}
	if r.ExpiryDate != nil {
		l.ExpiryDate = *r.ExpiryDate
	}
	if r.Images != nil {
		l.Images = *r.Images
	}
	if r.EstimatedValue != nil {
		l.EstimatedValue = *r.EstimatedValue
	}
	if r.SpecialInstructions != nil {
		l.SpecialInstructions = *r.SpecialInstructions
	}
	if r.CollectionNotes != nil {
		l.CollectionNotes = *r.CollectionNotes
	}
}

// Delete removes a listing. Only the owning donor or an admin may delete.
func (h *WasteHandler) Delete(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Listings.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to delete listing"})
	}
	if claims.UserID != l.DonorID && claims.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	if err := h.Listings.Delete(ctx, l.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to delete listing"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Listing deleted successfully"})
}
