package handler

import (
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/greenloop/waste2fertilizer/internal/model"
	"github.com/greenloop/waste2fertilizer/internal/repository"
)

// OrderHandler owns the fertilizer order endpoints.
type OrderHandler struct {
	Orders   OrderStore
	Products ProductStore
	Users    UserStore
}

func NewOrderHandler(orders OrderStore, products ProductStore, users UserStore) *OrderHandler {
	return &OrderHandler{Orders: orders, Products: products, Users: users}
}

type orderItemReq struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

type createOrderReq struct {
	Items           []orderItemReq `json:"items"`
	ShippingAddress string         `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	Notes           string         `json:"notes"`
}

func (r createOrderReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, 0)),
		validation.Field(&r.ShippingAddress, validation.Required),
		validation.Field(&r.PaymentMethod, validation.Required),
	)
}

// Create places an order for the authenticated buyer. Prices come from the
// catalog at order time, never from the payload, and every line must
// belong to the same manufacturer.
func (h *OrderHandler) Create(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	buyer, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create order"})
	}

	var (
		items            []model.OrderItem
		total            float64
		manufacturerID   string
		manufacturerName string
	)
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "item quantity must be positive"})
		}
		p, err := h.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "unknown product: " + item.ProductID})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create order"})
		}
		if manufacturerID == "" {
			manufacturerID = p.ManufacturerID
			manufacturerName = p.ManufacturerName
		} else if manufacturerID != p.ManufacturerID {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "all items must belong to one manufacturer"})
		}
		line := model.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			PricePerKg:  p.PricePerKg,
			TotalPrice:  item.Quantity * p.PricePerKg,
		}
		total += line.TotalPrice
		items = append(items, line)
	}

	now := time.Now().UTC()
	o := model.Order{
		ID:               uuid.NewString(),
		BuyerID:          claims.UserID,
		BuyerName:        buyer.Name,
		ManufacturerID:   manufacturerID,
		ManufacturerName: manufacturerName,
		Products:         items,
		TotalAmount:      total,
		Status:           model.OrderPending,
		ShippingAddress:  req.ShippingAddress,
		PaymentMethod:    req.PaymentMethod,
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.Orders.Create(ctx, &o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create order"})
	}
	return c.JSON(http.StatusCreated, o)
}

// My returns the buyer's orders.
func (h *OrderHandler) My(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	orders, err := h.Orders.ListByBuyer(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch orders"})
	}
	return c.JSON(http.StatusOK, orders)
}

// Incoming returns the orders addressed to the manufacturer.
func (h *OrderHandler) Incoming(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	orders, err := h.Orders.ListByManufacturer(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch orders"})
	}
	return c.JSON(http.StatusOK, orders)
}

// GetByID returns one order, visible only to its buyer, its manufacturer
// or an admin.
func (h *OrderHandler) GetByID(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch order"})
	}
	if claims.UserID != o.BuyerID && claims.UserID != o.ManufacturerID && claims.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	return c.JSON(http.StatusOK, o)
}

type updateOrderStatusReq struct {
	Status            string     `json:"status"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	TrackingNumber    *string    `json:"trackingNumber"`
	Notes             *string    `json:"notes"`
}

// UpdateStatus advances an order through its fulfillment states. The
// manufacturer (or admin) drives fulfillment; the buyer may only cancel a
// still-pending order.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}
	var req updateOrderStatusReq
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "status required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update order"})
	}

	to := model.OrderStatus(req.Status)
	if !o.Status.CanTransition(to) {
		return c.JSON(http.StatusConflict, echo.Map{"message": "invalid status transition"})
	}
	if !o.AllowStatusChange(to, claims.UserID, claims.Role) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	o.Status = to
	if req.EstimatedDelivery != nil {
		o.EstimatedDelivery = req.EstimatedDelivery
	}
	if req.TrackingNumber != nil {
		o.TrackingNumber = *req.TrackingNumber
	}
	if req.Notes != nil {
		o.Notes = *req.Notes
	}
	o.UpdatedAt = time.Now().UTC()

	if err := h.Orders.Update(ctx, &o); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update order"})
	}
	return c.JSON(http.StatusOK, o)
}
