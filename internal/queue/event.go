// Package queue defines message payloads exchanged over the message broker.
package queue

// ListingStatusChangedEvent is published whenever a waste listing moves
// through its lifecycle. It carries enough context for downstream
// consumers (notifications, analytics, the audit log) to act without
// querying the primary database.
type ListingStatusChangedEvent struct {
	ListingID      string  `json:"listing_id"`
	DonorID        string  `json:"donor_id"`
	DonorName      string  `json:"donor_name"`
	ManufacturerID string  `json:"manufacturer_id,omitempty"`
	Title          string  `json:"title"`
	WasteType      string  `json:"waste_type"`
	Quantity       float64 `json:"quantity_kg"`
	FromStatus     string  `json:"from_status"`
	ToStatus       string  `json:"to_status"`
	ChangedBy      string  `json:"changed_by"`
	ChangedAt      string  `json:"changed_at"`
}
