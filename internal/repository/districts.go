package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mr1hm/go-resilience-dashboard/internal/models"
)

const upsertSuffix = `ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	score = excluded.score,
	lat = excluded.lat,
	lng = excluded.lng,
	status = excluded.status,
	hazard_exposure = excluded.hazard_exposure,
	adaptive_capacity = excluded.adaptive_capacity,
	natural_resource = excluded.natural_resource,
	social_economic = excluded.social_economic,
	updated_at = excluded.updated_at`

// Upsert writes records in one transaction, replacing rows with the same id.
func (s *SQLiteDB) Upsert(ctx context.Context, records []models.DistrictRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var n int64
	for _, r := range records {
		var lat, lng any
		if r.Located() {
			lat, lng = r.Location.Lat, r.Location.Lng
		}
		query, args, err := builder().Insert(tableDistricts).
			Columns(append(districtColumns, "updated_at")...).
			Values(
				r.ID, r.Name, r.Score, lat, lng, string(r.Status),
				r.Dimensions.HazardExposure, r.Dimensions.AdaptiveCapacity,
				r.Dimensions.NaturalResource, r.Dimensions.SocialEconomic,
				now,
			).
			Suffix(upsertSuffix).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("error building upsert: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("error upserting district %d: %w", r.ID, err)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transaction: %w", err)
	}
	return n, nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id int) (*models.RawDistrict, error) {
	query, args, err := builder().Select(districtColumns...).
		From(tableDistricts).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building query: %w", err)
	}

	d, err := scanDistrict(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrapErr(err)
	}
	return d, nil
}

func (s *SQLiteDB) ListDistricts(ctx context.Context, opts Filter) ([]models.RawDistrict, error) {
	qb := builder().Select(districtColumns...).
		From(tableDistricts).
		OrderBy("id ASC")

	if opts.MinScore != nil {
		qb = qb.Where(sq.GtOrEq{"score": *opts.MinScore})
	}
	if opts.Status != nil {
		qb = qb.Where(sq.Eq{"status": string(*opts.Status)})
	}
	// SQLite rejects OFFSET without LIMIT.
	if opts.Limit > 0 {
		qb = qb.Limit(uint64(opts.Limit))
		if opts.Offset > 0 {
			qb = qb.Offset(uint64(opts.Offset))
		}
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying districts: %w", err)
	}
	defer rows.Close()

	out := []models.RawDistrict{}
	for rows.Next() {
		d, err := scanDistrict(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning district: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// FetchDistricts makes the database usable as a district source for the
// loader.
func (s *SQLiteDB) FetchDistricts(ctx context.Context) ([]models.RawDistrict, error) {
	return s.ListDistricts(ctx, Filter{})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDistrict(row scanner) (*models.RawDistrict, error) {
	var (
		id                            int64
		name                          string
		score, lat, lng               sql.NullFloat64
		status                        sql.NullString
		hazard, adaptive, res, social sql.NullFloat64
	)
	if err := row.Scan(&id, &name, &score, &lat, &lng, &status, &hazard, &adaptive, &res, &social); err != nil {
		return nil, err
	}

	d := &models.RawDistrict{
		ID:    id,
		Name:  name,
		Score: nullable(score),
		Lat:   nullable(lat),
		Lng:   nullable(lng),
	}
	if status.Valid && status.String != "" {
		band := models.StatusBand(status.String)
		d.Status = &band
	}
	if hazard.Valid || adaptive.Valid || res.Valid || social.Valid {
		d.Details = &models.RawDetails{
			Disaster:  nullable(hazard),
			Potential: nullable(adaptive),
			Resource:  nullable(res),
			Social:    nullable(social),
		}
	}
	return d, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
