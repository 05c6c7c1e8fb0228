package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenloop/waste2fertilizer/internal/model"
	"github.com/greenloop/waste2fertilizer/internal/queue"
)

func testWasteHandler() (*WasteHandler, *fakeListingStore, *fakeUserStore, *[]queue.ListingStatusChangedEvent) {
	listings := newFakeListingStore()
	users := newFakeUserStore()
	users.users["donor-1"] = model.User{ID: "donor-1", Email: "d@example.com", Name: "Green Grocer", Role: model.RoleDonor}
	users.users["manu-1"] = model.User{ID: "manu-1", Email: "m@example.com", Name: "SoilWorks", Role: model.RoleManufacturer}

	published := []queue.ListingStatusChangedEvent{}
	publish := func(_ context.Context, ev queue.ListingStatusChangedEvent) error {
		published = append(published, ev)
		return nil
	}
	return NewWasteHandler(listings, users, publish), listings, users, &published
}

func donorClaims() *Claims {
	return &Claims{UserID: "donor-1", Email: "d@example.com", Role: model.RoleDonor}
}

func manuClaims() *Claims {
	return &Claims{UserID: "manu-1", Email: "m@example.com", Role: model.RoleManufacturer}
}

func createListingBody() map[string]interface{} {
	return map[string]interface{}{
		"title":         "Overripe produce",
		"description":   "Two crates of fruit past sale date",
		"wasteType":     "fruit_vegetable",
		"quantity":      25.0,
		"location":      "Portland, OR",
		"availableFrom": time.Now().UTC().Format(time.RFC3339),
		"expiryDate":    time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339),
	}
}

func seedListing(s *fakeListingStore, id string, status model.WasteStatus, manufacturerID string) model.WasteListing {
	l := model.WasteListing{
		ID:             id,
		DonorID:        "donor-1",
		DonorName:      "Green Grocer",
		Title:          "Overripe produce",
		Description:    "crates",
		WasteType:      model.WasteFruitVegetable,
		Quantity:       25,
		Unit:           "kg",
		Location:       "Portland, OR",
		Status:         status,
		Images:         []string{},
		EstimatedValue: 12.5,
		ManufacturerID: manufacturerID,
		ExpiryDate:     time.Now().UTC().Add(72 * time.Hour),
	}
	s.listings[id] = l
	return l
}

func TestCreateListingDefaults(t *testing.T) {
	h, listings, _, _ := testWasteHandler()

	body := createListingBody()
	body["status"] = "converted" // caller-supplied status must be ignored
	c, rec := newTestContext(t, http.MethodPost, "/api/waste", body, donorClaims())
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, listings.listings, 1)
	for _, l := range listings.listings {
		assert.Equal(t, "donor-1", l.DonorID)
		assert.Equal(t, "Green Grocer", l.DonorName)
		assert.Equal(t, model.StatusListed, l.Status)
		assert.Equal(t, "kg", l.Unit)
		assert.Equal(t, 12.5, l.EstimatedValue, "defaults to half the quantity")
		assert.NotNil(t, l.Images)
		assert.Empty(t, l.ManufacturerID)
	}
}

func TestCreateListingValidation(t *testing.T) {
	h, listings, _, _ := testWasteHandler()

	cases := []func(map[string]interface{}){
		func(b map[string]interface{}) { delete(b, "title") },
		func(b map[string]interface{}) { b["wasteType"] = "plastic" },
		func(b map[string]interface{}) { b["quantity"] = 0.0 },
		func(b map[string]interface{}) { b["quantity"] = -5.0 },
		func(b map[string]interface{}) { delete(b, "location") },
	}
	for _, mutate := range cases {
		body := createListingBody()
		mutate(body)
		c, rec := newTestContext(t, http.MethodPost, "/api/waste", body, donorClaims())
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	assert.Empty(t, listings.listings, "rejected payloads must not create listings")
}

func TestMyReturnsOwnListingsOnly(t *testing.T) {
	h, listings, _, _ := testWasteHandler()
	seedListing(listings, "l-1", model.StatusListed, "")
	other := seedListing(listings, "l-2", model.StatusListed, "")
	other.DonorID = "someone-else"
	listings.listings["l-2"] = other

	c, rec := newTestContext(t, http.MethodGet, "/api/waste/my", nil, donorClaims())
	require.NoError(t, h.My(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"l-1"`)
	assert.NotContains(t, rec.Body.String(), `"l-2"`)
}

func TestUpdateFieldsRequiresOwner(t *testing.T) {
	h, listings, _, _ := testWasteHandler()
	seedListing(listings, "l-1", model.StatusListed, "")

	c, rec := newTestContext(t, http.MethodPut, "/api/waste/l-1", map[string]interface{}{"title": "hijacked"}, manuClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Overripe produce", listings.listings["l-1"].Title, "listing must be unchanged")
}

func TestUpdateCollectionNotesRequiresOwner(t *testing.T) {
	h, listings, _, _ := testWasteHandler()
	seedListing(listings, "l-1", model.StatusListed, "")

	// Notes alone are a field edit; without a status change a stranger has
	// no business writing them.
	stranger := &Claims{UserID: "buyer-1", Email: "b@example.com", Role: model.RoleBuyer}
	c, rec := newTestContext(t, http.MethodPut, "/api/waste/l-1", map[string]interface{}{"collectionNotes": "vandalized"}, stranger)
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, listings.listings["l-1"].CollectionNotes, "listing must be unchanged")
}

func TestCollectionNotesRideWithStatusChange(t *testing.T) {
	h, listings, _, _ := testWasteHandler()
	seedListing(listings, "l-1", model.StatusListed, "")

	c, rec := newTestContext(t, http.MethodPut, "/api/waste/l-1", map[string]interface{}{
		"status":          "requested",
		"collectionNotes": "will pick up Tuesday",
	}, manuClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusRequested, listings.listings["l-1"].Status)
	assert.Equal(t, "will pick up Tuesday", listings.listings["l-1"].CollectionNotes)
}

func TestUpdateFieldsByOwner(t *testing.T) {
	h, listings, _, _ := testWasteHandler()
	seedListing(listings, "l-1", model.StatusListed, "")

	c, rec := newTestContext(t, http.MethodPut, "/api/waste/l-1", map[string]interface{}{
		"title":    "Fresh crates",
		"quantity": 40.0,
	}, donorClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fresh crates", listings.listings["l-1"].Title)
	assert.Equal(t, 40.0, listings.listings["l-1"].Quantity)
}

func TestManufacturerRequestsListing(t *testing.T) {
	h, listings, _, published := testWasteHandler()
	seedListing(listings, "l-1", model.StatusListed, "")

	c, rec := newTestContext(t, http.MethodPut, "/api/waste/l-1", map[string]interface{}{"status": "requested"}, manuClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	got := listings.listings["l-1"]
	assert.Equal(t, model.StatusRequested, got.Status)
	assert.Equal(t, "manu-1", got.ManufacturerID, "requester becomes the assigned manufacturer")

	require.Len(t, *published, 1)
	ev := (*published)[0]
	assert.Equal(t, "l-1", ev.ListingID)
	assert.Equal(t, "listed", ev.FromStatus)
	assert.Equal(t, "requested", ev.ToStatus)
	assert.Equal(t, "manu-1", ev.ChangedBy)
}

func TestUpdateRejectsInvalidTransition(t *testing.T) {
	h, listings, _, published := testWasteHandler()
	seedListing(listings, "l-1", model.StatusListed, "")

	c, rec := newTestContext(t, http.MethodPut, "/api/waste/l-1", map[string]interface{}{"status": "converted"}, manuClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, model.StatusListed, listings.listings["l-1"].Status)
	assert.Empty(t, *published)
}

func TestUpdateRejectsWrongActor(t *testing.T) {
	h, listings, _, _ := testWasteHandler()
	seedListing(listings, "l-1", model.StatusRequested, "manu-1")

	// A manufacturer that never claimed the listing cannot confirm pickup.
	stranger := &Claims{UserID: "manu-2", Email: "m2@example.com", Role: model.RoleManufacturer}
	c, rec := newTestContext(t, http.MethodPut, "/api/waste/l-1", map[string]interface{}{"status": "collected"}, stranger)
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, model.StatusRequested, listings.listings["l-1"].Status)
}

func TestDonorConfirmsPickup(t *testing.T) {
	h, listings, _, published := testWasteHandler()
	seedListing(listings, "l-1", model.StatusRequested, "manu-1")

	c, rec := newTestContext(t, http.MethodPut, "/api/waste/l-1", map[string]interface{}{
		"status":          "collected",
		"collectionNotes": "picked up at noon",
	}, donorClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusCollected, listings.listings["l-1"].Status)
	assert.Equal(t, "picked up at noon", listings.listings["l-1"].CollectionNotes)
	require.Len(t, *published, 1)
}

func TestDeleteRequiresOwner(t *testing.T) {
	h, listings, _, _ := testWasteHandler()
	seedListing(listings, "l-1", model.StatusListed, "")

	c, rec := newTestContext(t, http.MethodDelete, "/api/waste/l-1", nil, manuClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, listings.listings, 1)

	c, rec = newTestContext(t, http.MethodDelete, "/api/waste/l-1", nil, donorClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, listings.listings)
}

func TestAdminMayDeleteAnyListing(t *testing.T) {
	h, listings, _, _ := testWasteHandler()
	seedListing(listings, "l-1", model.StatusListed, "")

	admin := &Claims{UserID: "admin-1", Email: "a@example.com", Role: model.RoleAdmin}
	c, rec := newTestContext(t, http.MethodDelete, "/api/waste/l-1", nil, admin)
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, listings.listings)
}

func TestReadsShowDerivedExpiry(t *testing.T) {
	h, listings, _, _ := testWasteHandler()
	stale := seedListing(listings, "l-1", model.StatusListed, "")
	stale.ExpiryDate = time.Now().UTC().Add(-time.Hour)
	listings.listings["l-1"] = stale
	claimed := seedListing(listings, "l-2", model.StatusRequested, "manu-1")
	claimed.ExpiryDate = time.Now().UTC().Add(-time.Hour)
	listings.listings["l-2"] = claimed

	c, rec := newTestContext(t, http.MethodGet, "/api/waste/l-1", nil, donorClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-1")
	require.NoError(t, h.GetByID(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "expired", decodeBody(t, rec)["status"])
	assert.Equal(t, model.StatusListed, listings.listings["l-1"].Status, "expiry is derived, the row is not rewritten")

	// A claimed listing keeps its real status whatever the date says.
	c, rec = newTestContext(t, http.MethodGet, "/api/waste/l-2", nil, donorClaims())
	c.SetParamNames("id")
	c.SetParamValues("l-2")
	require.NoError(t, h.GetByID(c))
	assert.Equal(t, "requested", decodeBody(t, rec)["status"])
}

func TestCreateListingForDeletedAccount(t *testing.T) {
	h, listings, _, _ := testWasteHandler()

	ghost := &Claims{UserID: "gone-1", Email: "gone@example.com", Role: model.RoleDonor}
	c, rec := newTestContext(t, http.MethodPost, "/api/waste", createListingBody(), ghost)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, listings.listings)
}

func TestGetByIDNotFound(t *testing.T) {
	h, _, _, _ := testWasteHandler()

	c, rec := newTestContext(t, http.MethodGet, "/api/waste/nope", nil, donorClaims())
	c.SetParamNames("id")
	c.SetParamValues("nope")
	require.NoError(t, h.GetByID(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
