package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/types"
)

const motorColumns = `id, model_display, horsepower, family, shaft_code, in_stock, stock_quantity,
    stock_number, base_price, dealer_price, estimated_price, description, features_json,
    specifications_json, images_json, origins_json, quality_score, override_json,
    last_stock_check, last_enriched`

// InsertMotor seeds one catalog record. Seeding is an admin operation; the
// engine itself never creates motors during a sync run.
func (s *Store) InsertMotor(ctx context.Context, motor *types.Motor) error {
	features, specs, images, origins, override, err := marshalMotorJSON(motor)
	if err != nil {
		return pkgerrors.WrapPersistence("insert", "motor", motor.ModelDisplay, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO motors (
            model_display, horsepower, family, shaft_code, in_stock, stock_quantity,
            stock_number, base_price, dealer_price, estimated_price, description,
            features_json, specifications_json, images_json, origins_json,
            quality_score, override_json, last_stock_check, last_enriched
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		motor.ModelDisplay,
		motor.Horsepower,
		string(motor.Family),
		nullableString(motor.ShaftCode),
		boolToInt(motor.InStock),
		motor.StockQuantity,
		nullableString(motor.StockNumber),
		motor.BasePrice,
		motor.DealerPrice,
		motor.EstimatedPrice,
		nullableString(motor.Description),
		features,
		specs,
		images,
		origins,
		motor.QualityScore,
		override,
		nullableTime(motor.LastStockCheck),
		nullableTime(motor.LastEnriched),
	)
	if err != nil {
		return pkgerrors.WrapPersistence("insert", "motor", motor.ModelDisplay, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.WrapPersistence("insert", "motor", motor.ModelDisplay, err)
	}
	motor.ID = id
	return nil
}

// GetMotor fetches one catalog record by identifier.
func (s *Store) GetMotor(ctx context.Context, id int64) (*types.Motor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+motorColumns+` FROM motors WHERE id = ?`, id)
	motor, err := scanMotor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get motor: %w", err)
	}
	return motor, nil
}

// ListMotors returns the full catalog ordered by model display.
func (s *Store) ListMotors(ctx context.Context) ([]types.Motor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+motorColumns+` FROM motors ORDER BY model_display, id`)
	if err != nil {
		return nil, fmt.Errorf("list motors: %w", err)
	}
	defer rows.Close()

	var motors []types.Motor
	for rows.Next() {
		motor, err := scanMotor(rows)
		if err != nil {
			return nil, err
		}
		motors = append(motors, *motor)
	}
	return motors, rows.Err()
}

// ResetStock marks every catalog record out of stock with zero quantity.
// This runs globally before any reassert write so records absent from the
// current feed correctly fall out of stock.
func (s *Store) ResetStock(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE motors SET in_stock = 0, stock_quantity = 0`)
	if err != nil {
		return 0, pkgerrors.WrapPersistence("reset", "motor", "", err)
	}
	return res.RowsAffected()
}

// UpsertStock reasserts stock state and dealer price for one motor. The
// write is a single keyed statement, so concurrent callers cannot interleave
// partial updates for the same record. A zero price leaves the stored dealer
// price untouched.
func (s *Store) UpsertStock(ctx context.Context, id int64, quantity int, price float64, stockNumber string) error {
	if quantity < 0 {
		quantity = 0
	}
	inStock := quantity > 0
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx,
		`UPDATE motors
         SET in_stock = ?, stock_quantity = ?,
             dealer_price = CASE WHEN ? > 0 THEN ? ELSE dealer_price END,
             stock_number = CASE WHEN ? != '' THEN ? ELSE stock_number END,
             last_stock_check = ?
         WHERE id = ?`,
		boolToInt(inStock),
		quantity,
		price, price,
		stockNumber, stockNumber,
		now,
		id,
	)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "motor", fmt.Sprint(id), err)
	}
	return nil
}

// SetEstimatedPrice fills the estimate field only. It never touches the base
// or dealer price.
func (s *Store) SetEstimatedPrice(ctx context.Context, id int64, price float64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE motors SET estimated_price = ? WHERE id = ?`, price, id)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "motor", fmt.Sprint(id), err)
	}
	return nil
}

// ApplyEnrichment writes merged descriptive fields and the quality score for
// one motor. Stock and price fields are untouched.
func (s *Store) ApplyEnrichment(ctx context.Context, id int64, enrichment types.Enrichment, quality int, origins []types.FieldOrigin) error {
	features, err := json.Marshal(enrichment.Features)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "motor", fmt.Sprint(id), err)
	}
	specs, err := json.Marshal(enrichment.Specifications)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "motor", fmt.Sprint(id), err)
	}
	images, err := json.Marshal(enrichment.Images)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "motor", fmt.Sprint(id), err)
	}
	originsJSON, err := json.Marshal(origins)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "motor", fmt.Sprint(id), err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`UPDATE motors
         SET description = ?, features_json = ?, specifications_json = ?, images_json = ?,
             origins_json = ?, quality_score = ?, last_enriched = ?
         WHERE id = ?`,
		nullableString(enrichment.Description),
		string(features),
		string(specs),
		string(images),
		string(originsJSON),
		quality,
		now,
		id,
	)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "motor", fmt.Sprint(id), err)
	}
	return nil
}

// SetOverride stores (or clears, with nil) the manual-override bundle.
func (s *Store) SetOverride(ctx context.Context, id int64, override *types.Override) error {
	var payload any
	if !override.Empty() {
		data, err := json.Marshal(override)
		if err != nil {
			return pkgerrors.WrapPersistence("update", "motor", fmt.Sprint(id), err)
		}
		payload = string(data)
	}
	_, err := s.db.ExecContext(ctx, `UPDATE motors SET override_json = ? WHERE id = ?`, payload, id)
	if err != nil {
		return pkgerrors.WrapPersistence("update", "motor", fmt.Sprint(id), err)
	}
	return nil
}

func marshalMotorJSON(motor *types.Motor) (features, specs, images, origins, override any, err error) {
	f, err := json.Marshal(motor.Features)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	sp, err := json.Marshal(motor.Specifications)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	im, err := json.Marshal(motor.Images)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	or, err := json.Marshal(motor.Origins)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	var ov any
	if !motor.Override.Empty() {
		data, err := json.Marshal(motor.Override)
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		ov = string(data)
	}
	return string(f), string(sp), string(im), string(or), ov, nil
}

func scanMotor(scanner interface{ Scan(dest ...any) error }) (*types.Motor, error) {
	var (
		id             int64
		modelDisplay   string
		horsepower     float64
		family         string
		shaftCode      sql.NullString
		inStock        int
		stockQuantity  int
		stockNumber    sql.NullString
		basePrice      float64
		dealerPrice    float64
		estimatedPrice float64
		description    sql.NullString
		featuresJSON   sql.NullString
		specsJSON      sql.NullString
		imagesJSON     sql.NullString
		originsJSON    sql.NullString
		qualityScore   int
		overrideJSON   sql.NullString
		lastStockRaw   sql.NullString
		lastEnrichRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&modelDisplay,
		&horsepower,
		&family,
		&shaftCode,
		&inStock,
		&stockQuantity,
		&stockNumber,
		&basePrice,
		&dealerPrice,
		&estimatedPrice,
		&description,
		&featuresJSON,
		&specsJSON,
		&imagesJSON,
		&originsJSON,
		&qualityScore,
		&overrideJSON,
		&lastStockRaw,
		&lastEnrichRaw,
	); err != nil {
		return nil, err
	}

	motor := &types.Motor{
		ID:             id,
		ModelDisplay:   modelDisplay,
		Horsepower:     horsepower,
		Family:         types.Family(family),
		ShaftCode:      shaftCode.String,
		InStock:        inStock != 0,
		StockQuantity:  stockQuantity,
		StockNumber:    stockNumber.String,
		BasePrice:      basePrice,
		DealerPrice:    dealerPrice,
		EstimatedPrice: estimatedPrice,
		Description:    description.String,
		QualityScore:   qualityScore,
	}

	if featuresJSON.Valid && featuresJSON.String != "" {
		if err := json.Unmarshal([]byte(featuresJSON.String), &motor.Features); err != nil {
			return nil, fmt.Errorf("decode features: %w", err)
		}
	}
	if specsJSON.Valid && specsJSON.String != "" {
		if err := json.Unmarshal([]byte(specsJSON.String), &motor.Specifications); err != nil {
			return nil, fmt.Errorf("decode specifications: %w", err)
		}
	}
	if imagesJSON.Valid && imagesJSON.String != "" {
		if err := json.Unmarshal([]byte(imagesJSON.String), &motor.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	if originsJSON.Valid && originsJSON.String != "" {
		if err := json.Unmarshal([]byte(originsJSON.String), &motor.Origins); err != nil {
			return nil, fmt.Errorf("decode origins: %w", err)
		}
	}
	if overrideJSON.Valid && overrideJSON.String != "" {
		motor.Override = &types.Override{}
		if err := json.Unmarshal([]byte(overrideJSON.String), motor.Override); err != nil {
			return nil, fmt.Errorf("decode override: %w", err)
		}
	}
	if lastStockRaw.Valid {
		if t, err := parseTimeString(lastStockRaw.String); err == nil {
			motor.LastStockCheck = &t
		}
	}
	if lastEnrichRaw.Valid {
		if t, err := parseTimeString(lastEnrichRaw.String); err == nil {
			motor.LastEnriched = &t
		}
	}
	return motor, nil
}
