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

// ProductHandler owns the fertilizer catalog endpoints.
type ProductHandler struct {
	Products ProductStore
	Users    UserStore
}

func NewProductHandler(products ProductStore, users UserStore) *ProductHandler {
	return &ProductHandler{Products: products, Users: users}
}

type createProductReq struct {
	Name                string                `json:"name"`
	Description         string                `json:"description"`
	Type                string                `json:"type"`
	NutrientContent     model.NutrientContent `json:"nutrientContent"`
	Quantity            float64               `json:"quantity"`
	PricePerKg          float64               `json:"pricePerKg"`
	Images              []string              `json:"images"`
	ApplicationRate     string                `json:"applicationRate"`
	StorageInstructions string                `json:"storageInstructions"`
	Certifications      []string              `json:"certifications"`
	IsOrganic           bool                  `json:"isOrganic"`
}

func (r createProductReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.Type, validation.Required, validation.By(fertilizerTypeRule)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.PricePerKg, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.ApplicationRate, validation.Required),
		validation.Field(&r.StorageInstructions, validation.Required),
	)
}

func fertilizerTypeRule(value interface{}) error {
	s, _ := value.(string)
	if !model.ValidFertilizerType(s) {
		return errors.New("unknown fertilizer type")
	}
	return nil
}

// Create adds a product to the catalog for the authenticated manufacturer.
// Rating and review count always start at zero.
func (h *ProductHandler) Create(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}
	var req createProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	manufacturer, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create product"})
	}

	now := time.Now().UTC()
	p := model.FertilizerProduct{
		ID:                  uuid.NewString(),
		ManufacturerID:      claims.UserID,
		ManufacturerName:    manufacturer.Name,
		Name:                req.Name,
		Description:         req.Description,
		Type:                model.FertilizerType(req.Type),
		NutrientContent:     req.NutrientContent,
		Quantity:            req.Quantity,
		PricePerKg:          req.PricePerKg,
		Images:              req.Images,
		ApplicationRate:     req.ApplicationRate,
		StorageInstructions: req.StorageInstructions,
		Certifications:      req.Certifications,
		IsOrganic:           req.IsOrganic,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Certifications == nil {
		p.Certifications = []string{}
	}

	if err := h.Products.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create product"})
	}
	return c.JSON(http.StatusCreated, p)
}

// List returns the whole catalog.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	products, err := h.Products.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch products"})
	}
	return c.JSON(http.StatusOK, products)
}

// My returns the caller's own products.
func (h *ProductHandler) My(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	products, err := h.Products.ListByManufacturer(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch products"})
	}
	return c.JSON(http.StatusOK, products)
}

// GetByID fetches one product.
func (h *ProductHandler) GetByID(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to fetch product"})
	}
	return c.JSON(http.StatusOK, p)
}

type updateProductReq struct {
	Name                *string                `json:"name"`
	Description         *string                `json:"description"`
	Type                *string                `json:"type"`
	NutrientContent     *model.NutrientContent `json:"nutrientContent"`
	Quantity            *float64               `json:"quantity"`
	PricePerKg          *float64               `json:"pricePerKg"`
	Images              *[]string              `json:"images"`
	ApplicationRate     *string                `json:"applicationRate"`
	StorageInstructions *string                `json:"storageInstructions"`
	Certifications      *[]string              `json:"certifications"`
	IsOrganic           *bool                  `json:"isOrganic"`
}

// Update merges the patch; only the owning manufacturer or admin may edit.
func (h *ProductHandler) Update(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}
	var req updateProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update product"})
	}
	if claims.UserID != p.ManufacturerID && claims.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Type != nil && model.ValidFertilizerType(*req.Type) {
		p.Type = model.FertilizerType(*req.Type)
	}
	if req.NutrientContent != nil {
		p.NutrientContent = *req.NutrientContent
	}
	if req.Quantity != nil && *req.Quantity >= 0 {
		p.Quantity = *req.Quantity
	}
	if req.PricePerKg != nil && *req.PricePerKg > 0 {
		p.PricePerKg = *req.PricePerKg
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.ApplicationRate != nil {
		p.ApplicationRate = *req.ApplicationRate
	}
	if req.StorageInstructions != nil {
		p.StorageInstructions = *req.StorageInstructions
	}
	if req.Certifications != nil {
		p.Certifications = *req.Certifications
	}
	if req.IsOrganic != nil {
		p.IsOrganic = *req.IsOrganic
	}
	p.UpdatedAt = time.Now().UTC()

	if err := h.Products.Update(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update product"})
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a product; owner or admin only.
func (h *ProductHandler) Delete(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to delete product"})
	}
	if claims.UserID != p.ManufacturerID && claims.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	if err := h.Products.Delete(ctx, p.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to delete product"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}
