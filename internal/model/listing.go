package model

import "time"

// WasteType categorizes the organic material a donor offers.
type WasteType string

const (
	WasteFruitVegetable WasteType = "fruit_vegetable"
	WasteBakery         WasteType = "bakery"
	WasteDairy          WasteType = "dairy"
	WasteMeatFish       WasteType = "meat_fish"
	WasteGrainsCereals  WasteType = "grains_cereals"
	WasteOther          WasteType = "other"
)

// ValidWasteType reports whether s is a known waste category.
func ValidWasteType(s string) bool {
	switch WasteType(s) {
	case WasteFruitVegetable, WasteBakery, WasteDairy, WasteMeatFish, WasteGrainsCereals, WasteOther:
		return true
	}
	return false
}

// WasteStatus is the lifecycle state of a listing. The happy path runs
// listed -> requested -> collected -> in_process -> converted; a listing
// that is never requested becomes expired once its expiry date passes.
type WasteStatus string

const (
	StatusListed    WasteStatus = "listed"
	StatusRequested WasteStatus = "requested"
	StatusCollected WasteStatus = "collected"
	StatusInProcess WasteStatus = "in_process"
	StatusConverted WasteStatus = "converted"
	StatusExpired   WasteStatus = "expired"
)

// transitions is the directed edge set of the listing lifecycle. Any status
// change not present here is rejected, including self-transitions.
var transitions = map[WasteStatus][]WasteStatus{
	StatusListed:    {StatusRequested, StatusExpired},
	StatusRequested: {StatusCollected},
	StatusCollected: {StatusInProcess},
	StatusInProcess: {StatusConverted},
}

// CanTransition reports whether the lifecycle graph contains the edge s -> to.
func (s WasteStatus) CanTransition(to WasteStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// WasteListing mirrors the `waste_listings` table. DonorID is fixed at
// creation and never transfers; ManufacturerID is set when a manufacturer
// requests collection.
type WasteListing struct {
	ID                  string      `json:"id"`
	DonorID             string      `json:"donorId"`
	DonorName           string      `json:"donorName"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	WasteType           WasteType   `json:"wasteType"`
	Quantity            float64     `json:"quantity"`
	Unit                string      `json:"unit"`
	Location            string      `json:"location"`
	Latitude            float64     `json:"latitude"`
	Longitude           float64     `json:"longitude"`
	AvailableFrom       time.Time   `json:"availableFrom"`
	ExpiryDate          time.Time   `json:"expiryDate"`
	Status              WasteStatus `json:"status"`
	Images              []string    `json:"images"`
	EstimatedValue      float64     `json:"estimatedValue"`
	SpecialInstructions string      `json:"specialInstructions,omitempty"`
	CollectionNotes     string      `json:"collectionNotes,omitempty"`
	ManufacturerID      string      `json:"manufacturerId,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// Normalize applies the creation-time field rules: the unit is always
// kilograms, images default to an empty list, and the estimated value
// defaults to half the quantity when the donor did not supply one.
// Caller-supplied values for status, unit and ownership are never trusted.
func (l *WasteListing) Normalize() {
	l.Unit = "kg"
	l.Status = StatusListed
	if l.Images == nil {
		l.Images = []string{}
	}
	if l.EstimatedValue == 0 {
		l.EstimatedValue = l.Quantity * 0.5
	}
}

// Expired reports whether the listing should be shown as expired at the
// given instant. Expiry is derived at read time; nothing rewrites the row
// in the background.
func (l *WasteListing) Expired(now time.Time) bool {
	return l.Status == StatusListed && now.After(l.ExpiryDate)
}

// AllowStatusChange decides whether the caller may move the listing to the
// requested status. The lifecycle edge must exist, and each edge has an
// actor rule: manufacturers drive the collection/conversion path, the
// owning donor confirms pickup or expires an unclaimed listing, and admins
// may perform any valid edge.
func (l *WasteListing) AllowStatusChange(to WasteStatus, callerID string, role Role) bool {
	if !l.Status.CanTransition(to) {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	switch {
	case l.Status == StatusListed && to == StatusRequested:
		return role == RoleManufacturer
	case l.Status == StatusListed && to == StatusExpired:
		return callerID == l.DonorID
	case l.Status == StatusRequested && to == StatusCollected:
		return callerID == l.DonorID || callerID == l.ManufacturerID
	default:
		// collected -> in_process and in_process -> converted belong to
		// the manufacturer that claimed the listing.
		return role == RoleManufacturer && callerID == l.ManufacturerID
	}
}
