package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fieldwise/visits-service/internal/model"
	"github.com/fieldwise/visits-service/internal/service"
)

// QueryRepository serves the read-only scheduling, billing-preview and
// search projections.
type QueryRepository struct {
	db *gorm.DB
}

func NewQueryRepository(db *gorm.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

const visitDetailColumns = `
	v.id,
	v.contract_id,
	v.worker_id,
	v.date,
	v.week_number,
	v.status,
	v.comment,
	v.cancel_reason,
	v.invoiced,
	v.created_at,
	v.updated_at,
	cl.id AS client_id,
	cl.name AS client_name,
	cl.address AS client_address,
	cl.city AS client_city,
	cl.active AS client_active,
	c.price_inc,
	COALESCE(w.name, '') AS worker_name
`

const visitDetailJoins = `
	FROM visits v
	JOIN contracts c ON c.id = v.contract_id
	JOIN clients cl ON cl.id = c.client_id
	LEFT JOIN workers w ON w.id = v.worker_id
`

func (r *QueryRepository) ListVisits(ctx context.Context, filter service.VisitFilter) ([]model.VisitDetail, error) {
	query := "SELECT" + visitDetailColumns + visitDetailJoins + "WHERE 1=1"
	args := []interface{}{}

	if !filter.From.IsZero() {
		query += " AND v.date >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND v.date <= ?"
		args = append(args, filter.To)
	}
	if filter.WorkerID != nil {
		query += " AND v.worker_id = ?"
		args = append(args, *filter.WorkerID)
	}
	if filter.Status != nil {
		query += " AND v.status = ?"
		args = append(args, *filter.Status)
	}
	if filter.WeekNumber != nil {
		query += " AND v.week_number = ?"
		args = append(args, *filter.WeekNumber)
	}
	query += " ORDER BY v.date ASC, cl.name ASC"

	var visits []model.VisitDetail
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// BillingPreview lists planned, uninvoiced work inside a range or for a
// client tag, skipping clients on the separate monthly billing run.
func (r *QueryRepository) BillingPreview(ctx context.Context, filter service.BillingFilter) ([]model.VisitDetail, error) {
	query := "SELECT" + visitDetailColumns + visitDetailJoins + `
		WHERE v.status = 'PLANNED'
			AND v.invoiced = FALSE
			AND cl.monthly_invoice = FALSE
	`
	args := []interface{}{}

	if filter.Tag != "" {
		query += " AND LOWER(cl.tag) = LOWER(?)"
		args = append(args, filter.Tag)
	} else {
		query += " AND v.date >= ? AND v.date <= ?"
		args = append(args, filter.From, filter.To)
	}
	query += " ORDER BY v.date ASC, cl.name ASC"

	var visits []model.VisitDetail
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// Search matches client name, address, city or the visit date rendered
// as DD-MM-YYYY, over active, uninvoiced planned visits only.
func (r *QueryRepository) Search(ctx context.Context, term string, limit int) ([]model.VisitDetail, error) {
	pattern := "%" + term + "%"

	query := "SELECT" + visitDetailColumns + visitDetailJoins + `
		WHERE v.status = 'PLANNED'
			AND v.invoiced = FALSE
			AND cl.active = TRUE
			AND (
				cl.name ILIKE ?
				OR cl.address ILIKE ?
				OR cl.city ILIKE ?
				OR TO_CHAR(v.date, 'DD-MM-YYYY') LIKE ?
			)
		ORDER BY v.date DESC
		LIMIT ?
	`

	var visits []model.VisitDetail
	err := r.db.WithContext(ctx).
		Raw(query, pattern, pattern, pattern, pattern, limit).
		Scan(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}
