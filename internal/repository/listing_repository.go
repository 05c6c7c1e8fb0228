package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/greenloop/waste2fertilizer/internal/model"
)

type ListingRepo struct{ DB *sql.DB }

func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{DB: db} }

const listingColumns = "id,donor_id,donor_name,title,description,waste_type,quantity,unit,location,latitude,longitude,available_from,expiry_date,status,images,estimated_value,special_instructions,collection_notes,manufacturer_id,created_at,updated_at"

// jsonStrings packs a string slice into the JSON text column format used
// for images and certifications.
func jsonStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

func parseStrings(raw string) []string {
	ss := []string{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &ss)
	}
	return ss
}

// Create inserts a fully-normalized listing row.
func (r *ListingRepo) Create(ctx context.Context, l *model.WasteListing) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO waste_listings ("+listingColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		l.ID, l.DonorID, l.DonorName, l.Title, l.Description, string(l.WasteType),
		l.Quantity, l.Unit, l.Location, l.Latitude, l.Longitude,
		l.AvailableFrom, l.ExpiryDate, string(l.Status), jsonStrings(l.Images),
		l.EstimatedValue, l.SpecialInstructions, l.CollectionNotes,
		nullable(l.ManufacturerID), l.CreatedAt, l.UpdatedAt)
	return err
}

// List returns every listing in storage order.
func (r *ListingRepo) List(ctx context.Context) ([]model.WasteListing, error) {
	return r.query(ctx, "SELECT "+listingColumns+" FROM waste_listings")
}

// ListByDonor returns the listings owned by one donor.
func (r *ListingRepo) ListByDonor(ctx context.Context, donorID string) ([]model.WasteListing, error) {
	return r.query(ctx, "SELECT "+listingColumns+" FROM waste_listings WHERE donor_id=?", donorID)
}

// GetByID fetches one listing by its business identifier.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (model.WasteListing, error) {
	rows, err := r.query(ctx, "SELECT "+listingColumns+" FROM waste_listings WHERE id=? LIMIT 1", id)
	if err != nil {
		return model.WasteListing{}, err
	}
	if len(rows) == 0 {
		return model.WasteListing{}, ErrNotFound
	}
	return rows[0], nil
}

// Update rewrites every mutable column of the row. The handler owns the
// merge semantics; by the time a listing reaches here it is the full
// post-merge record with updated_at already stamped.
func (r *ListingRepo) Update(ctx context.Context, l *model.WasteListing) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE waste_listings SET title=?,description=?,waste_type=?,quantity=?,unit=?,location=?,
		 latitude=?,longitude=?,available_from=?,expiry_date=?,status=?,images=?,estimated_value=?,
		 special_instructions=?,collection_notes=?,manufacturer_id=?,updated_at=? WHERE id=?`,
		l.Title, l.Description, string(l.WasteType), l.Quantity, l.Unit, l.Location,
		l.Latitude, l.Longitude, l.AvailableFrom, l.ExpiryDate, string(l.Status),
		jsonStrings(l.Images), l.EstimatedValue, l.SpecialInstructions, l.CollectionNotes,
		nullable(l.ManufacturerID), l.UpdatedAt, l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// updated_at always changes, so zero rows means the id is gone.
		return ErrNotFound
	}
	return nil
}

// Delete removes the listing with the given business identifier.
func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM waste_listings WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ListingRepo) query(ctx context.Context, q string, args ...any) ([]model.WasteListing, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WasteListing{}
	for rows.Next() {
		var l model.WasteListing
		var wasteType, status, images string
		var manufacturerID sql.NullString
		if err := rows.Scan(
			&l.ID, &l.DonorID, &l.DonorName, &l.Title, &l.Description, &wasteType,
			&l.Quantity, &l.Unit, &l.Location, &l.Latitude, &l.Longitude,
			&l.AvailableFrom, &l.ExpiryDate, &status, &images, &l.EstimatedValue,
			&l.SpecialInstructions, &l.CollectionNotes, &manufacturerID,
			&l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		l.WasteType = model.WasteType(wasteType)
		l.Status = model.WasteStatus(status)
		l.Images = parseStrings(images)
		l.ManufacturerID = manufacturerID.String
		out = append(out, l)
	}
	return out, rows.Err()
}

// nullable maps an empty string to SQL NULL for optional foreign keys.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
