package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/erin-happyrobot/pepsi-options-emails/internal/model"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/prebook"
)

const (
	selectAvailableLoadsSQL = `
		SELECT id, status, org_id, custom_load_id, pickup_date_close,
		       origin_location_id, destination_location_id
		FROM loads
		WHERE status = $1 AND org_id = $2
	`

	selectLocationsSQL = `
		SELECT id, city, state
		FROM locations
		WHERE id = ANY($1)
	`

	selectOptionsSQL = `
		SELECT id, load_id, carrier_id, status, offered_rate::text, phone, created_at
		FROM options
		WHERE load_id = ANY($1)
	`

	selectCarriersSQL = `
		SELECT id, name, mc_number, dot_number
		FROM carriers
		WHERE id = ANY($1)
	`
)

type PostgresOptionsRepo struct {
	pool *pgxpool.Pool
}

var _ OptionsRepository = (*PostgresOptionsRepo)(nil)

func NewPostgresOptionsRepo(pool *pgxpool.Pool) *PostgresOptionsRepo {
	return &PostgresOptionsRepo{pool: pool}
}

// OptionsForAvailableLoads returns every option (all option statuses, ops
// wants the full bid picture) attached to the org's available loads that are
// still pre-bookable at now, enriched with lane and carrier data.
func (r *PostgresOptionsRepo) OptionsForAvailableLoads(ctx context.Context, orgID string, now time.Time) ([]model.OptionDetail, error) {
	loads, err := r.availableLoads(ctx, orgID)
	if err != nil {
		return nil, err
	}
	loads = filterEligible(loads, now)
	if len(loads) == 0 {
		return []model.OptionDetail{}, nil
	}

	locations, err := r.locationsByID(ctx, locationIDs(loads))
	if err != nil {
		return nil, err
	}

	options, err := r.optionsByLoad(ctx, loadIDs(loads))
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return []model.OptionDetail{}, nil
	}

	carriers, err := r.carriersByID(ctx, carrierIDs(options))
	if err != nil {
		return nil, err
	}

	return assembleDetails(loads, locations, options, carriers), nil
}

func (r *PostgresOptionsRepo) availableLoads(ctx context.Context, orgID string) ([]model.Load, error) {
	rows, err := r.pool.Query(ctx, selectAvailableLoadsSQL, model.LoadAvailable, orgID)
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}
	defer rows.Close()

	var loads []model.Load
	for rows.Next() {
		var l model.Load
		if err := rows.Scan(
			&l.ID,
			&l.Status,
			&l.OrgID,
			&l.CustomLoadID,
			&l.PickupDateClose,
			&l.OriginLocationID,
			&l.DestinationLocationID,
		); err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}

// filterEligible drops loads whose pickup window no longer allows pre-booking
// at now.
func filterEligible(loads []model.Load, now time.Time) []model.Load {
	out := make([]model.Load, 0, len(loads))
	for _, l := range loads {
		if prebook.Eligible(l.PickupDateClose, "", now) {
			out = append(out, l)
		}
	}
	return out
}

func (r *PostgresOptionsRepo) locationsByID(ctx context.Context, ids []string) (map[string]model.Location, error) {
	out := make(map[string]model.Location, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, selectLocationsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var loc model.Location
		if err := rows.Scan(&loc.ID, &loc.City, &loc.State); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out[loc.ID] = loc
	}
	return out, rows.Err()
}

func (r *PostgresOptionsRepo) optionsByLoad(ctx context.Context, loadIDs []string) ([]model.Option, error) {
	rows, err := r.pool.Query(ctx, selectOptionsSQL, loadIDs)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	var out []model.Option
	for rows.Next() {
		var (
			o        model.Option
			rateText *string
		)
		if err := rows.Scan(
			&o.ID,
			&o.LoadID,
			&o.CarrierID,
			&o.Status,
			&rateText,
			&o.Phone,
			&o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}

		o.OfferedRate = parseRate(rateText)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresOptionsRepo) carriersByID(ctx context.Context, ids []string) (map[string]model.Carrier, error) {
	out := make(map[string]model.Carrier, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, selectCarriersSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("query carriers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Carrier
		if err := rows.Scan(&c.ID, &c.Name, &c.MCNumber, &c.DOTNumber); err != nil {
			return nil, fmt.Errorf("scan carrier: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// assembleDetails joins options to their load's lane and carrier data. An
// option whose load id matches none of the loads is dropped; option statuses
// are never filtered.
func assembleDetails(loads []model.Load, locations map[string]model.Location, options []model.Option, carriers map[string]model.Carrier) []model.OptionDetail {
	loadByID := make(map[string]model.Load, len(loads))
	for _, l := range loads {
		loadByID[l.ID] = l
	}

	out := make([]model.OptionDetail, 0, len(options))
	for _, opt := range options {
		load, ok := loadByID[opt.LoadID]
		if !ok {
			continue
		}

		detail := model.OptionDetail{
			Option: opt,
			Load: model.LoadSummary{
				ID:           load.ID,
				CustomLoadID: load.CustomLoadID,
				Origin:       displayLocation(locations, load.OriginLocationID),
				Destination:  displayLocation(locations, load.DestinationLocationID),
			},
		}

		if opt.CarrierID != nil {
			if c, ok := carriers[*opt.CarrierID]; ok {
				name := c.Name
				detail.CarrierName = &name
				detail.CarrierMC = c.MCNumber
				detail.CarrierDOT = c.DOTNumber
			}
		}

		out = append(out, detail)
	}
	return out
}

func parseRate(text *string) *decimal.Decimal {
	if text == nil {
		return nil
	}
	d, err := decimal.NewFromString(*text)
	if err != nil {
		return nil
	}
	return &d
}

func displayLocation(locations map[string]model.Location, id *string) *string {
	if id == nil {
		return nil
	}
	loc, ok := locations[*id]
	if !ok {
		// A dangling location id stays visible in the report.
		s := "Location ID: " + *id + " (not found)"
		return &s
	}
	s := strings.Trim(loc.City+", "+loc.State, ", ")
	return &s
}

func loadIDs(loads []model.Load) []string {
	ids := make([]string, 0, len(loads))
	for _, l := range loads {
		ids = append(ids, l.ID)
	}
	return ids
}

func locationIDs(loads []model.Load) []string {
	seen := make(map[string]struct{}, len(loads)*2)
	var ids []string
	for _, l := range loads {
		for _, id := range []*string{l.OriginLocationID, l.DestinationLocationID} {
			if id == nil {
				continue
			}
			if _, dup := seen[*id]; dup {
				continue
			}
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	return ids
}

func carrierIDs(options []model.Option) []string {
	seen := make(map[string]struct{}, len(options))
	var ids []string
	for _, o := range options {
		if o.CarrierID == nil {
			continue
		}
		if _, dup := seen[*o.CarrierID]; dup {
			continue
		}
		seen[*o.CarrierID] = struct{}{}
		ids = append(ids, *o.CarrierID)
	}
	return ids
}
