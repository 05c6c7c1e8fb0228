package model

import "time"

// FertilizerType classifies a finished product in the catalog.
type FertilizerType string

const (
	FertilizerOrganicCompost FertilizerType = "organic_compost"
	FertilizerLiquid         FertilizerType = "liquid_fertilizer"
	FertilizerGranular       FertilizerType = "granular"
	FertilizerSpecialized    FertilizerType = "specialized"
)

// ValidFertilizerType reports whether s is a known fertilizer type.
func ValidFertilizerType(s string) bool {
	switch FertilizerType(s) {
	case FertilizerOrganicCompost, FertilizerLiquid, FertilizerGranular, FertilizerSpecialized:
		return true
	}
	return false
}

// NutrientContent is the NPK analysis of a product, percentages by weight.
type NutrientContent struct {
	Nitrogen      float64 `json:"nitrogen"`
	Phosphorus    float64 `json:"phosphorus"`
	Potassium     float64 `json:"potassium"`
	OrganicMatter float64 `json:"organic_matter,omitempty"`
}

// FertilizerProduct mirrors the `fertilizer_products` table. The owning
// manufacturer is fixed at creation, same as a listing's donor.
type FertilizerProduct struct {
	ID                  string          `json:"id"`
	ManufacturerID      string          `json:"manufacturerId"`
	ManufacturerName    string          `json:"manufacturerName"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Type                FertilizerType  `json:"type"`
	NutrientContent     NutrientContent `json:"nutrientContent"`
	Quantity            float64         `json:"quantity"`
	PricePerKg          float64         `json:"pricePerKg"`
	Images              []string        `json:"images"`
	ApplicationRate     string          `json:"applicationRate"`
	StorageInstructions string          `json:"storageInstructions"`
	Certifications      []string        `json:"certifications"`
	Rating              float64         `json:"rating"`
	ReviewCount         int             `json:"reviewCount"`
	IsOrganic           bool            `json:"isOrganic"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}
