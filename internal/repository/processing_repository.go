package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/greenloop/waste2fertilizer/internal/model"
)

type ProcessingRepo struct{ DB *sql.DB }

func NewProcessingRepo(db *sql.DB) *ProcessingRepo { return &ProcessingRepo{DB: db} }

const processingColumns = "id,waste_listing_id,manufacturer_id,process_start,process_end,current_stage,expected_yield,actual_yield,quality_metrics,notes,created_at,updated_at"

// Create inserts a processing record.
func (r *ProcessingRepo) Create(ctx context.Context, p *model.ProcessingRecord) error {
	metrics, err := marshalMetrics(p.QualityMetrics)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO processing_records ("+processingColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		p.ID, p.WasteListingID, p.ManufacturerID, p.ProcessStart, p.ProcessEnd,
		p.CurrentStage, p.ExpectedYield, p.ActualYield, metrics, p.Notes,
		p.CreatedAt, p.UpdatedAt)
	return err
}

// ListByManufacturer returns a manufacturer's processing records.
func (r *ProcessingRepo) ListByManufacturer(ctx context.Context, manufacturerID string) ([]model.ProcessingRecord, error) {
	return r.query(ctx, "SELECT "+processingColumns+" FROM processing_records WHERE manufacturer_id=?", manufacturerID)
}

// GetByID fetches one record by its business identifier.
func (r *ProcessingRepo) GetByID(ctx context.Context, id string) (model.ProcessingRecord, error) {
	rows, err := r.query(ctx, "SELECT "+processingColumns+" FROM processing_records WHERE id=? LIMIT 1", id)
	if err != nil {
		return model.ProcessingRecord{}, err
	}
	if len(rows) == 0 {
		return model.ProcessingRecord{}, ErrNotFound
	}
	return rows[0], nil
}

// Update rewrites the progress fields of the post-merge record.
func (r *ProcessingRepo) Update(ctx context.Context, p *model.ProcessingRecord) error {
	metrics, err := marshalMetrics(p.QualityMetrics)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE processing_records SET process_end=?,current_stage=?,expected_yield=?,actual_yield=?,quality_metrics=?,notes=?,updated_at=? WHERE id=?",
		p.ProcessEnd, p.CurrentStage, p.ExpectedYield, p.ActualYield, metrics, p.Notes, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalMetrics(m *model.QualityMetrics) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func (r *ProcessingRepo) query(ctx context.Context, q string, args ...any) ([]model.ProcessingRecord, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ProcessingRecord{}
	for rows.Next() {
		var p model.ProcessingRecord
		var processEnd sql.NullTime
		var metrics sql.NullString
		if err := rows.Scan(
			&p.ID, &p.WasteListingID, &p.ManufacturerID, &p.ProcessStart, &processEnd,
			&p.CurrentStage, &p.ExpectedYield, &p.ActualYield, &metrics, &p.Notes,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if processEnd.Valid {
			t := processEnd.Time
			p.ProcessEnd = &t
		}
		if metrics.Valid {
			var qm model.QualityMetrics
			if json.Unmarshal([]byte(metrics.String), &qm) == nil {
				p.QualityMetrics = &qm
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
