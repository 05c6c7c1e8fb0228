package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/greenloop/waste2fertilizer/internal/model"
)

type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

const orderColumns = "id,buyer_id,buyer_name,manufacturer_id,manufacturer_name,products,total_amount,status,shipping_address,estimated_delivery,tracking_number,payment_method,notes,created_at,updated_at"

// Create inserts an order. Line items travel as a JSON document in the
// `products` column; they are immutable once the order is placed.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	items, err := json.Marshal(o.Products)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		o.ID, o.BuyerID, o.BuyerName, o.ManufacturerID, o.ManufacturerName,
		string(items), o.TotalAmount, string(o.Status), o.ShippingAddress,
		o.EstimatedDelivery, o.TrackingNumber, o.PaymentMethod, o.Notes,
		o.CreatedAt, o.UpdatedAt)
	return err
}

// ListByBuyer returns the orders a buyer has placed.
func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE buyer_id=?", buyerID)
}

// ListByManufacturer returns the orders addressed to a manufacturer.
func (r *OrderRepo) ListByManufacturer(ctx context.Context, manufacturerID string) ([]model.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE manufacturer_id=?", manufacturerID)
}

// GetByID fetches one order by its business identifier.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (model.Order, error) {
	rows, err := r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE id=? LIMIT 1", id)
	if err != nil {
		return model.Order{}, err
	}
	if len(rows) == 0 {
		return model.Order{}, ErrNotFound
	}
	return rows[0], nil
}

// Update rewrites the fulfillment fields of an order. Line items and the
// parties are never rewritten after creation.
func (r *OrderRepo) Update(ctx context.Context, o *model.Order) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status=?,estimated_delivery=?,tracking_number=?,notes=?,updated_at=? WHERE id=?",
		string(o.Status), o.EstimatedDelivery, o.TrackingNumber, o.Notes, o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderRepo) query(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Order{}
	for rows.Next() {
		var o model.Order
		var items, status string
		var estDelivery sql.NullTime
		var tracking, notes sql.NullString
		if err := rows.Scan(
			&o.ID, &o.BuyerID, &o.BuyerName, &o.ManufacturerID, &o.ManufacturerName,
			&items, &o.TotalAmount, &status, &o.ShippingAddress, &estDelivery,
			&tracking, &o.PaymentMethod, &notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Status = model.OrderStatus(status)
		o.Products = []model.OrderItem{}
		_ = json.Unmarshal([]byte(items), &o.Products)
		if estDelivery.Valid {
			t := estDelivery.Time
			o.EstimatedDelivery = &t
		}
		o.TrackingNumber = tracking.String
		o.Notes = notes.String
		out = append(out, o)
	}
	return out, rows.Err()
}
