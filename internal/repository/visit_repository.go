package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldwise/visits-service/internal/model"
)

// VisitRepository is the postgres-backed store behind the scheduling
// engine. Queries are raw SQL; gorm is only the connection and scan
// layer.
type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var row struct {
		ID             uuid.UUID
		ClientID       uuid.UUID
		Frequency      string
		PriceInc       float64
		TaxPct         float64
		LastVisit      *time.Time
		NextVisit      *time.Time
		Active         bool
		EndedAt        *time.Time
		ClientName     string
		ClientAddress  string
		ClientPostal   string
		ClientCity     string
		ClientPhone    string
		ClientTag      string
		ClientMonthly  bool
		ClientActive   bool
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			c.id,
			c.client_id,
			c.frequency,
			c.price_inc,
			c.tax_pct,
			c.last_visit,
			c.next_visit,
			c.active,
			c.ended_at,
			cl.name AS client_name,
			cl.address AS client_address,
			cl.postal_code AS client_postal,
			cl.city AS client_city,
			cl.phone AS client_phone,
			cl.tag AS client_tag,
			cl.monthly_invoice AS client_monthly,
			cl.active AS client_active
		FROM contracts c
		JOIN clients cl ON cl.id = c.client_id
		WHERE c.id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	return &model.Contract{
		ID:        row.ID,
		ClientID:  row.ClientID,
		Frequency: model.ParseFrequency(row.Frequency),
		PriceInc:  row.PriceInc,
		TaxPct:    row.TaxPct,
		LastVisit: row.LastVisit,
		NextVisit: row.NextVisit,
		Active:    row.Active,
		EndedAt:   row.EndedAt,
		Client: model.Client{
			ID:             row.ClientID,
			Name:           row.ClientName,
			Address:        row.ClientAddress,
			PostalCode:     row.ClientPostal,
			City:           row.ClientCity,
			Phone:          row.ClientPhone,
			Tag:            row.ClientTag,
			MonthlyInvoice: row.ClientMonthly,
			Active:         row.ClientActive,
		},
	}, nil
}

func (r *VisitRepository) GetWorker(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	var worker model.Worker
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, phone, active
		FROM workers
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&worker).Error
	if err != nil {
		return nil, err
	}
	if worker.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &worker, nil
}

// ListActiveWorkers keeps a stable id order so the assignment
// tie-break stays deterministic across calls.
func (r *VisitRepository) ListActiveWorkers(ctx context.Context) ([]model.Worker, error) {
	var workers []model.Worker
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, phone, active
		FROM workers
		WHERE active = TRUE
		ORDER BY id ASC
	`).Scan(&workers).Error
	if err != nil {
		return nil, err
	}
	return workers, nil
}

func (r *VisitRepository) GetVisit(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var visit model.Visit
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, worker_id, date, week_number, status,
			comment, cancel_reason, invoiced, created_at, updated_at
		FROM visits
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&visit).Error
	if err != nil {
		return nil, err
	}
	if visit.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &visit, nil
}

func (r *VisitRepository) GetVisitDetail(ctx context.Context, id uuid.UUID) (*model.VisitDetail, error) {
	var detail model.VisitDetail
	err := r.db.WithContext(ctx).Raw(`
		SELECT
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
		FROM visits v
		JOIN contracts c ON c.id = v.contract_id
		JOIN clients cl ON cl.id = c.client_id
		LEFT JOIN workers w ON w.id = v.worker_id
		WHERE v.id = ?
		LIMIT 1
	`, id).Scan(&detail).Error
	if err != nil {
		return nil, err
	}
	if detail.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &detail, nil
}

func (r *VisitRepository) LastAssignedWorker(ctx context.Context, contractID uuid.UUID) (*uuid.UUID, error) {
	var row struct {
		WorkerID *uuid.UUID
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT worker_id
		FROM visits
		WHERE contract_id = ? AND worker_id IS NOT NULL
		ORDER BY date DESC, created_at DESC
		LIMIT 1
	`, contractID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.WorkerID, nil
}

func (r *VisitRepository) CreateVisits(ctx context.Context, visits []model.Visit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, v := range visits {
			err := tx.Exec(`
				INSERT INTO visits (
					id, contract_id, worker_id, date, week_number,
					status, comment, cancel_reason, invoiced
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				v.ID,
				v.ContractID,
				v.WorkerID,
				v.Date,
				v.WeekNumber,
				v.Status,
				v.Comment,
				v.CancelReason,
				v.Invoiced,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePlannedVisits removes the contract's non-terminal visits ahead
// of a series rebuild. Completed and cancelled visits are never deleted.
func (r *VisitRepository) DeletePlannedVisits(ctx context.Context, contractID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		DELETE FROM visits
		WHERE contract_id = ? AND status = 'PLANNED'
	`, contractID).Error
}

func (r *VisitRepository) UpdateVisit(ctx context.Context, visit *model.Visit) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE visits
		SET
			worker_id = ?,
			date = ?,
			week_number = ?,
			status = ?,
			comment = ?,
			cancel_reason = ?,
			invoiced = ?,
			updated_at = NOW()
		WHERE id = ?
	`,
		visit.WorkerID,
		visit.Date,
		visit.WeekNumber,
		visit.Status,
		visit.Comment,
		visit.CancelReason,
		visit.Invoiced,
		visit.ID,
	).Error
}

func (r *VisitRepository) SetVisitWorker(ctx context.Context, visitID, workerID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE visits
		SET worker_id = ?, updated_at = NOW()
		WHERE id = ?
	`, workerID, visitID).Error
}

func (r *VisitRepository) ClearWorkers(ctx context.Context, visitIDs []uuid.UUID) error {
	if len(visitIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE visits
		SET worker_id = NULL, updated_at = NOW()
		WHERE id = ANY(?)
	`, visitIDs).Error
}

func (r *VisitRepository) DayLoads(ctx context.Context, date time.Time, excludeVisitID uuid.UUID) (map[uuid.UUID]float64, error) {
	var rows []struct {
		WorkerID uuid.UUID
		DayLoad  float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT v.worker_id, COALESCE(SUM(c.price_inc), 0) AS day_load
		FROM visits v
		JOIN contracts c ON c.id = v.contract_id
		WHERE v.date = ?
			AND v.worker_id IS NOT NULL
			AND v.id <> ?
			AND v.status <> 'CANCELLED'
		GROUP BY v.worker_id
	`, date, excludeVisitID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	loads := make(map[uuid.UUID]float64, len(rows))
	for _, row := range rows {
		loads[row.WorkerID] = row.DayLoad
	}
	return loads, nil
}

func (r *VisitRepository) CityAffinities(ctx context.Context, city string) (map[uuid.UUID]int, error) {
	var rows []struct {
		WorkerID uuid.UUID
		Affinity int
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT v.worker_id, COUNT(*) AS affinity
		FROM visits v
		JOIN contracts c ON c.id = v.contract_id
		JOIN clients cl ON cl.id = c.client_id
		WHERE v.worker_id IS NOT NULL
			AND v.status <> 'CANCELLED'
			AND LOWER(cl.city) = LOWER(?)
		GROUP BY v.worker_id
	`, city).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	affinities := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		affinities[row.WorkerID] = row.Affinity
	}
	return affinities, nil
}

func (r *VisitRepository) ListUnassignedVisits(ctx context.Context, contractID *uuid.UUID) ([]model.Visit, error) {
	query := `
		SELECT id, contract_id, worker_id, date, week_number, status,
			comment, cancel_reason, invoiced, created_at, updated_at
		FROM visits
		WHERE worker_id IS NULL AND status = 'PLANNED'
	`
	args := []interface{}{}
	if contractID != nil {
		query += " AND contract_id = ?"
		args = append(args, *contractID)
	}
	query += " ORDER BY date ASC, created_at ASC"

	var visits []model.Visit
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *VisitRepository) ListPlannedForWorker(ctx context.Context, workerID uuid.UUID, from time.Time, to *time.Time) ([]model.Visit, error) {
	query := `
		SELECT id, contract_id, worker_id, date, week_number, status,
			comment, cancel_reason, invoiced, created_at, updated_at
		FROM visits
		WHERE worker_id = ? AND status = 'PLANNED' AND date >= ?
	`
	args := []interface{}{workerID, from}
	if to != nil {
		query += " AND date <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY date ASC"

	var visits []model.Visit
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// CancelClientVisits is the one cross-entity mutation: the visit
// cancellation and the contract end stamp must land together.
func (r *VisitRepository) CancelClientVisits(ctx context.Context, clientID uuid.UUID, reason string, endedAt time.Time) (int, error) {
	var cancelled int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE visits v
			SET
				status = 'CANCELLED',
				cancel_reason = ?,
				worker_id = NULL,
				updated_at = NOW()
			FROM contracts c
			WHERE c.id = v.contract_id
				AND c.client_id = ?
				AND v.status = 'PLANNED'
		`, reason, clientID)
		if result.Error != nil {
			return result.Error
		}
		cancelled = result.RowsAffected

		return tx.Exec(`
			UPDATE contracts
			SET active = FALSE, ended_at = ?
			WHERE client_id = ? AND ended_at IS NULL
		`, endedAt, clientID).Error
	})
	if err != nil {
		return 0, err
	}
	return int(cancelled), nil
}
