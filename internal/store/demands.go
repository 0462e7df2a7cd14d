package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/trznica/internal/model"
)

// ErrPreconditionFailed is returned by conditional writes when the demand is
// missing or no longer in the expected status.
var ErrPreconditionFailed = errors.New("precondition failed")

const demandSelect = `
	SELECT d.id, d.buyer_id, d.seller_id, d.commodity, d.quantity, d.unit, d.location,
	       d.desired_by, d.notes, d.price_offer, d.status, d.created_at, d.updated_at,
	       b.name, s.name
	FROM demands d
	LEFT JOIN users b ON b.id = d.buyer_id
	LEFT JOIN users s ON s.id = d.seller_id`

func scanDemand(row interface{ Scan(...any) error }) (*model.Demand, error) {
	d := &model.Demand{}
	var location string
	var buyerName, sellerName sql.NullString
	err := row.Scan(&d.ID, &d.BuyerID, &d.SellerID, &d.Commodity, &d.Quantity, &d.Unit, &location,
		&d.DesiredBy, &d.Notes, &d.PriceOffer, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&buyerName, &sellerName)
	if err != nil {
		return nil, err
	}

	d.Location = model.Location{}
	if location != "" {
		if err := json.Unmarshal([]byte(location), &d.Location); err != nil {
			return nil, fmt.Errorf("decoding location: %w", err)
		}
	}

	if buyerName.Valid {
		d.Buyer = &model.UserSummary{ID: d.BuyerID, Name: buyerName.String}
	}
	if d.SellerID != nil && sellerName.Valid {
		d.Seller = &model.UserSummary{ID: *d.SellerID, Name: sellerName.String}
	}
	return d, nil
}

func encodeLocation(loc model.Location) (string, error) {
	if loc == nil {
		return "{}", nil
	}
	b, err := json.Marshal(loc)
	if err != nil {
		return "", fmt.Errorf("encoding location: %w", err)
	}
	return string(b), nil
}

// CreateDemand inserts an open demand for d.BuyerID and returns the stored row.
func CreateDemand(ctx context.Context, db *sql.DB, d *model.Demand) (*model.Demand, error) {
	location, err := encodeLocation(d.Location)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = db.ExecContext(ctx,
		`INSERT INTO demands (id, buyer_id, commodity, quantity, unit, location, desired_by, notes, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, d.BuyerID, d.Commodity, d.Quantity, d.Unit, location, utcPtr(d.DesiredBy), d.Notes,
		model.DemandStatusOpen, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating demand: %w", err)
	}

	return GetDemand(ctx, db, id)
}

// GetDemand returns a demand by ID with buyer and seller summaries.
func GetDemand(ctx context.Context, db *sql.DB, id string) (*model.Demand, error) {
	d, err := scanDemand(db.QueryRowContext(ctx, demandSelect+` WHERE d.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting demand: %w", err)
	}
	return d, nil
}

// ListDemands returns demands matching filter, newest first.
func ListDemands(ctx context.Context, db *sql.DB, filter Expr, limit, offset int) ([]model.Demand, error) {
	where, args := filter.SQL()
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx,
		demandSelect+` WHERE `+where+` ORDER BY d.created_at DESC, d.rowid DESC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing demands: %w", err)
	}
	defer rows.Close()

	demands := []model.Demand{}
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning demand: %w", err)
		}
		demands = append(demands, *d)
	}
	return demands, rows.Err()
}

// UpdateDemandFields applies patch to the demand. With requireOpen the write
// only happens while the demand is open.
func UpdateDemandFields(ctx context.Context, db *sql.DB, id string, patch model.DemandPatch, requireOpen bool) (*model.Demand, error) {
	var sets []string
	var args []any

	if patch.Commodity != nil {
		sets = append(sets, "commodity = ?")
		args = append(args, *patch.Commodity)
	}
	if patch.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *patch.Quantity)
	}
	if patch.Unit != nil {
		sets = append(sets, "unit = ?")
		args = append(args, *patch.Unit)
	}
	if patch.Location != nil {
		location, err := encodeLocation(*patch.Location)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "location = ?")
		args = append(args, location)
	}
	if patch.ClearDesiredBy {
		sets = append(sets, "desired_by = NULL")
	} else if patch.DesiredBy != nil {
		sets = append(sets, "desired_by = ?")
		args = append(args, patch.DesiredBy.UTC())
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := `UPDATE demands SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if requireOpen {
		query += ` AND status = ?`
		args = append(args, model.DemandStatusOpen)
	}

	if err := execConditional(ctx, db, "updating demand", query, args...); err != nil {
		return nil, err
	}
	return GetDemand(ctx, db, id)
}

// CancelDemand moves an open demand to cancelled.
func CancelDemand(ctx context.Context, db *sql.DB, id string) (*model.Demand, error) {
	err := execConditional(ctx, db, "cancelling demand",
		`UPDATE demands SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		model.DemandStatusCancelled, time.Now().UTC(), id, model.DemandStatusOpen,
	)
	if err != nil {
		return nil, err
	}
	return GetDemand(ctx, db, id)
}

// RespondDemand records a farmer's answer to an open demand. Status, seller,
// price offer and the appended note are written in one statement guarded on
// the demand still being open.
func RespondDemand(ctx context.Context, db *sql.DB, id, status, sellerID string, priceOffer *float64, note string) (*model.Demand, error) {
	suffix := ""
	if note != "" {
		suffix = "\nSeller note: " + note
	}

	err := execConditional(ctx, db, "responding to demand",
		`UPDATE demands
		 SET status = ?, seller_id = ?, price_offer = COALESCE(?, price_offer),
		     notes = notes || ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		status, sellerID, priceOffer, suffix, time.Now().UTC(), id, model.DemandStatusOpen,
	)
	if err != nil {
		return nil, err
	}
	return GetDemand(ctx, db, id)
}

func execConditional(ctx context.Context, db *sql.DB, op, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
