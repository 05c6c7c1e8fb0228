package model

import "time"

// QualityMetrics captures the lab readings taken during conversion.
type QualityMetrics struct {
	PH            float64 `json:"ph"`
	Moisture      float64 `json:"moisture"`
	OrganicMatter float64 `json:"organicMatter"`
}

// ProcessingRecord mirrors the `processing_records` table. One record tracks
// the conversion of a single collected listing by the manufacturer that
// claimed it. Opening a record moves the listing to in_process; closing it
// (setting ProcessEndDate) moves the listing to converted.
type ProcessingRecord struct {
	ID             string          `json:"id"`
	WasteListingID string          `json:"wasteListingId"`
	ManufacturerID string          `json:"manufacturerId"`
	ProcessStart   time.Time       `json:"processStartDate"`
	ProcessEnd     *time.Time      `json:"processEndDate,omitempty"`
	CurrentStage   string          `json:"currentStage"`
	ExpectedYield  float64         `json:"expectedYield"`
	ActualYield    float64         `json:"actualYield,omitempty"`
	QualityMetrics *QualityMetrics `json:"qualityMetrics,omitempty"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
