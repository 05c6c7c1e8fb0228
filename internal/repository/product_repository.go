package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/greenloop/waste2fertilizer/internal/model"
)

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productColumns = "id,manufacturer_id,manufacturer_name,name,description,type,nutrients,quantity,price_per_kg,images,application_rate,storage_instructions,certifications,rating,review_count,is_organic,created_at,updated_at"

// Create inserts a catalog product. The NPK analysis is packed into a JSON
// text column, matching how images and certifications are stored.
func (r *ProductRepo) Create(ctx context.Context, p *model.FertilizerProduct) error {
	nutrients, err := json.Marshal(p.NutrientContent)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO fertilizer_products ("+productColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		p.ID, p.ManufacturerID, p.ManufacturerName, p.Name, p.Description, string(p.Type),
		string(nutrients), p.Quantity, p.PricePerKg, jsonStrings(p.Images),
		p.ApplicationRate, p.StorageInstructions, jsonStrings(p.Certifications),
		p.Rating, p.ReviewCount, p.IsOrganic, p.CreatedAt, p.UpdatedAt)
	return err
}

// List returns the full catalog.
func (r *ProductRepo) List(ctx context.Context) ([]model.FertilizerProduct, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM fertilizer_products")
}

// ListByManufacturer returns one manufacturer's products.
func (r *ProductRepo) ListByManufacturer(ctx context.Context, manufacturerID string) ([]model.FertilizerProduct, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM fertilizer_products WHERE manufacturer_id=?", manufacturerID)
}

// GetByID fetches one product by its business identifier.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (model.FertilizerProduct, error) {
	rows, err := r.query(ctx, "SELECT "+productColumns+" FROM fertilizer_products WHERE id=? LIMIT 1", id)
	if err != nil {
		return model.FertilizerProduct{}, err
	}
	if len(rows) == 0 {
		return model.FertilizerProduct{}, ErrNotFound
	}
	return rows[0], nil
}

// Update rewrites the mutable columns of the post-merge record.
func (r *ProductRepo) Update(ctx context.Context, p *model.FertilizerProduct) error {
	nutrients, err := json.Marshal(p.NutrientContent)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE fertilizer_products SET name=?,description=?,type=?,nutrients=?,quantity=?,price_per_kg=?,
		 images=?,application_rate=?,storage_instructions=?,certifications=?,rating=?,review_count=?,
		 is_organic=?,updated_at=? WHERE id=?`,
		p.Name, p.Description, string(p.Type), string(nutrients), p.Quantity, p.PricePerKg,
		jsonStrings(p.Images), p.ApplicationRate, p.StorageInstructions, jsonStrings(p.Certifications),
		p.Rating, p.ReviewCount, p.IsOrganic, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM fertilizer_products WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepo) query(ctx context.Context, q string, args ...any) ([]model.FertilizerProduct, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.FertilizerProduct{}
	for rows.Next() {
		var p model.FertilizerProduct
		var typ, nutrients, images, certs string
		if err := rows.Scan(
			&p.ID, &p.ManufacturerID, &p.ManufacturerName, &p.Name, &p.Description, &typ,
			&nutrients, &p.Quantity, &p.PricePerKg, &images, &p.ApplicationRate,
			&p.StorageInstructions, &certs, &p.Rating, &p.ReviewCount, &p.IsOrganic,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Type = model.FertilizerType(typ)
		_ = json.Unmarshal([]byte(nutrients), &p.NutrientContent)
		p.Images = parseStrings(images)
		p.Certifications = parseStrings(certs)
		out = append(out, p)
	}
	return out, rows.Err()
}
