// Package handler implements the HTTP endpoints. Handlers depend on small
// store interfaces rather than concrete repositories so they can be tested
// against in-memory fakes.
package handler

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenloop/waste2fertilizer/internal/middleware"
	"github.com/greenloop/waste2fertilizer/internal/model"
)

var errNoClaims = errors.New("no identity in context")

// Claims is the verified identity the access boundary attached to the
// request. It is the only source of caller identity; request bodies are
// never trusted for ownership fields.
type Claims struct {
	UserID string
	Email  string
	Role   model.Role
}

// currentClaims reads the identity injected by the JWT middleware.
func currentClaims(c echo.Context) (Claims, error) {
	id, ok := c.Get(middleware.CtxUserID).(string)
	if !ok || id == "" {
		return Claims{}, errNoClaims
	}
	email, _ := c.Get(middleware.CtxEmail).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	return Claims{UserID: id, Email: email, Role: model.Role(role)}, nil
}

// reqCtx bounds every storage call to five seconds, matching the
// request/response character of the API.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// UserStore is the account persistence needed by handlers.
type UserStore interface {
	Create(ctx context.Context, u *model.User, password string, cost int) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// ListingStore is the waste-listing persistence needed by handlers.
type ListingStore interface {
	Create(ctx context.Context, l *model.WasteListing) error
	List(ctx context.Context) ([]model.WasteListing, error)
	ListByDonor(ctx context.Context, donorID string) ([]model.WasteListing, error)
	GetByID(ctx context.Context, id string) (model.WasteListing, error)
	Update(ctx context.Context, l *model.WasteListing) error
	Delete(ctx context.Context, id string) error
}

// ProductStore is the catalog persistence needed by handlers.
type ProductStore interface {
	Create(ctx context.Context, p *model.FertilizerProduct) error
	List(ctx context.Context) ([]model.FertilizerProduct, error)
	ListByManufacturer(ctx context.Context, manufacturerID string) ([]model.FertilizerProduct, error)
	GetByID(ctx context.Context, id string) (model.FertilizerProduct, error)
	Update(ctx context.Context, p *model.FertilizerProduct) error
	Delete(ctx context.Context, id string) error
}

// OrderStore is the order persistence needed by handlers.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error)
	ListByManufacturer(ctx context.Context, manufacturerID string) ([]model.Order, error)
	GetByID(ctx context.Context, id string) (model.Order, error)
	Update(ctx context.Context, o *model.Order) error
}

// ProcessingStore is the processing-record persistence needed by handlers.
type ProcessingStore interface {
	Create(ctx context.Context, p *model.ProcessingRecord) error
	ListByManufacturer(ctx context.Context, manufacturerID string) ([]model.ProcessingRecord, error)
	GetByID(ctx context.Context, id string) (model.ProcessingRecord, error)
	Update(ctx context.Context, p *model.ProcessingRecord) error
}
