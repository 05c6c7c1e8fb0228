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

func testProcessingHandler() (*ProcessingHandler, *fakeProcessingStore, *fakeListingStore, *[]queue.ListingStatusChangedEvent) {
	records := newFakeProcessingStore()
	listings := newFakeListingStore()
	published := []queue.ListingStatusChangedEvent{}
	publish := func(_ context.Context, ev queue.ListingStatusChangedEvent) error {
		published = append(published, ev)
		return nil
	}
	return NewProcessingHandler(records, listings, publish), records, listings, &published
}

func TestCreateProcessingMovesListingToInProcess(t *testing.T) {
	h, records, listings, published := testProcessingHandler()
	seedListing(listings, "l-1", model.StatusCollected, "manu-1")

	c, rec := newTestContext(t, http.MethodPost, "/api/processing", map[string]interface{}{
		"wasteListingId": "l-1",
		"currentStage":   "shredding",
		"expectedYield":  8.0,
	}, manuClaims())
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, records.records, 1)
	for _, r := range records.records {
		assert.Equal(t, "l-1", r.WasteListingID)
		assert.Equal(t, "manu-1", r.ManufacturerID)
		assert.Equal(t, "shredding", r.CurrentStage)
		assert.Nil(t, r.ProcessEnd)
	}
	assert.Equal(t, model.StatusInProcess, listings.listings["l-1"].Status)
	require.Len(t, *published, 1)
	assert.Equal(t, "collected", (*published)[0].FromStatus)
	assert.Equal(t, "in_process", (*published)[0].ToStatus)
}

func TestCreateProcessingRejectsUncollectedListing(t *testing.T) {
	h, records, listings, _ := testProcessingHandler()
	seedListing(listings, "l-1", model.StatusListed, "")

	c, rec := newTestContext(t, http.MethodPost, "/api/processing", map[string]interface{}{
		"wasteListingId": "l-1",
		"currentStage":   "shredding",
		"expectedYield":  8.0,
	}, manuClaims())
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, records.records)
	assert.Equal(t, model.StatusListed, listings.listings["l-1"].Status)
}

func TestCreateProcessingRejectsUnassignedManufacturer(t *testing.T) {
	h, records, listings, _ := testProcessingHandler()
	seedListing(listings, "l-1", model.StatusCollected, "manu-1")

	stranger := &Claims{UserID: "manu-2", Email: "m2@example.com", Role: model.RoleManufacturer}
	c, rec := newTestContext(t, http.MethodPost, "/api/processing", map[string]interface{}{
		"wasteListingId": "l-1",
		"currentStage":   "shredding",
		"expectedYield":  8.0,
	}, stranger)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, records.records)
}

func TestCompletingProcessingConvertsListing(t *testing.T) {
	h, records, listings, published := testProcessingHandler()
	seedListing(listings, "l-1", model.StatusInProcess, "manu-1")
	records.records["pr-1"] = model.ProcessingRecord{
		ID: "pr-1", WasteListingID: "l-1", ManufacturerID: "manu-1",
		ProcessStart: time.Now().UTC().Add(-48 * time.Hour), CurrentStage: "curing", ExpectedYield: 8,
	}

	end := time.Now().UTC().Format(time.RFC3339)
	c, rec := newTestContext(t, http.MethodPut, "/api/processing/pr-1", map[string]interface{}{
		"processEndDate": end,
		"actualYield":    7.2,
		"currentStage":   "done",
	}, manuClaims())
	c.SetParamNames("id")
	c.SetParamValues("pr-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	got := records.records["pr-1"]
	require.NotNil(t, got.ProcessEnd)
	assert.Equal(t, 7.2, got.ActualYield)
	assert.Equal(t, model.StatusConverted, listings.listings["l-1"].Status)
	require.Len(t, *published, 1)
	assert.Equal(t, "converted", (*published)[0].ToStatus)
}

func TestUpdateProcessingRequiresOwner(t *testing.T) {
	h, records, listings, _ := testProcessingHandler()
	seedListing(listings, "l-1", model.StatusInProcess, "manu-1")
	records.records["pr-1"] = model.ProcessingRecord{
		ID: "pr-1", WasteListingID: "l-1", ManufacturerID: "manu-1",
		ProcessStart: time.Now().UTC(), CurrentStage: "curing", ExpectedYield: 8,
	}

	stranger := &Claims{UserID: "manu-2", Email: "m2@example.com", Role: model.RoleManufacturer}
	c, rec := newTestContext(t, http.MethodPut, "/api/processing/pr-1", map[string]interface{}{"currentStage": "hijacked"}, stranger)
	c.SetParamNames("id")
	c.SetParamValues("pr-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "curing", records.records["pr-1"].CurrentStage)
}
