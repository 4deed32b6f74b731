package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/pricing"
)

type componentRow struct {
	Month              string          `db:"month"`
	Item               string          `db:"item"`
	ItemDescription    string          `db:"item_description"`
	ItemCategory       string          `db:"item_category"`
	MarketIndexName    string          `db:"market_index_name"`
	Plant              string          `db:"plant"`
	SellToBracket      string          `db:"sell_to_bracket"`
	CustomLabelBracket string          `db:"custom_label_bracket"`
	Pallet             string          `db:"pallet"`
	MileageTier        string          `db:"mileage_tier"`
	DropTier           string          `db:"drop_tier"`
	BaseMilkCost       float64         `db:"base_milk_cost"`
	ClassIFee          float64         `db:"class_i_fee"`
	Shrink             float64         `db:"shrink"`
	Processing         float64         `db:"processing"`
	Packaging          float64         `db:"packaging"`
	Ingredients        float64         `db:"ingredients"`
	SellToFee          float64         `db:"sell_to_fee"`
	CustomLabelFee     float64         `db:"custom_label_fee"`
	PalletFee          float64         `db:"pallet_fee"`
	FOB                float64         `db:"fob"`
	DeliveryCharge     float64         `db:"delivery_charge"`
	Delivered          float64         `db:"delivered"`
	GallonsPerEach     sql.NullFloat64 `db:"gallons_per_each"`
	GallonsPerCase     sql.NullFloat64 `db:"gallons_per_case"`
	Position           int             `db:"position"`
}

const insertComponents = `
	INSERT INTO price_components (
		month, item, item_description, item_category, market_index_name, plant,
		sell_to_bracket, custom_label_bracket, pallet, mileage_tier, drop_tier,
		base_milk_cost, class_i_fee, shrink, processing, packaging, ingredients,
		sell_to_fee, custom_label_fee, pallet_fee, fob, delivery_charge, delivered,
		gallons_per_each, gallons_per_case, position
	) VALUES (
		:month, :item, :item_description, :item_category, :market_index_name, :plant,
		:sell_to_bracket, :custom_label_bracket, :pallet, :mileage_tier, :drop_tier,
		:base_milk_cost, :class_i_fee, :shrink, :processing, :packaging, :ingredients,
		:sell_to_fee, :custom_label_fee, :pallet_fee, :fob, :delivery_charge, :delivered,
		:gallons_per_each, :gallons_per_case, :position
	)`

func nullable(v float32) sql.NullFloat64 {
	if math.IsNaN(float64(v)) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(v), Valid: true}
}

func fromNullable(v sql.NullFloat64) float32 {
	if !v.Valid {
		return float32(math.NaN())
	}
	return float32(v.Float64)
}

// ReplaceComponents swaps the stored price database for rows.
func (s *Store) ReplaceComponents(ctx context.Context, rows []pricing.PriceComponentRow) error {
	records := make([]componentRow, len(rows))
	for i := range rows {
		r := &rows[i]
		records[i] = componentRow{
			Month:              r.Month,
			Item:               r.Item,
			ItemDescription:    r.ItemDescription,
			ItemCategory:       r.ItemCategory,
			MarketIndexName:    r.MarketIndexName,
			Plant:              r.Plant,
			SellToBracket:      r.SellToBracket.String(),
			CustomLabelBracket: r.CustomLabelBracket.String(),
			Pallet:             r.Pallet,
			MileageTier:        r.MileageTier,
			DropTier:           r.DropTier,
			BaseMilkCost:       float64(r.BaseMilkCost),
			ClassIFee:          float64(r.ClassIFee),
			Shrink:             float64(r.Shrink),
			Processing:         float64(r.Processing),
			Packaging:          float64(r.Packaging),
			Ingredients:        float64(r.Ingredients),
			SellToFee:          float64(r.SellToFee),
			CustomLabelFee:     float64(r.CustomLabelFee),
			PalletFee:          float64(r.PalletFee),
			FOB:                float64(r.FOB),
			DeliveryCharge:     float64(r.DeliveryCharge),
			Delivered:          float64(r.Delivered),
			GallonsPerEach:     nullable(r.GallonsPerEach),
			GallonsPerCase:     nullable(r.GallonsPerCase),
			Position:           i,
		}
	}

	err := s.write(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM price_components`); err != nil {
			return err
		}
		return insertAll(ctx, tx, insertComponents, records)
	})
	if err != nil {
		return fmt.Errorf("failed to replace price components: %w", err)
	}
	return nil
}

// Components returns the stored price database in derivation order.
func (s *Store) Components(ctx context.Context) ([]pricing.PriceComponentRow, error) {
	var records []componentRow
	if err := s.db.SelectContext(ctx, &records, `SELECT * FROM price_components ORDER BY position`); err != nil {
		return nil, fmt.Errorf("failed to load price components: %w", err)
	}

	rows := make([]pricing.PriceComponentRow, len(records))
	for i, r := range records {
		rows[i] = pricing.PriceComponentRow{
			Month:              r.Month,
			Item:               r.Item,
			ItemDescription:    r.ItemDescription,
			ItemCategory:       r.ItemCategory,
			MarketIndexName:    r.MarketIndexName,
			Plant:              r.Plant,
			SellToBracket:      pricing.ParseTier(r.SellToBracket),
			CustomLabelBracket: pricing.ParseTier(r.CustomLabelBracket),
			Pallet:             r.Pallet,
			MileageTier:        r.MileageTier,
			DropTier:           r.DropTier,
			BaseMilkCost:       float32(r.BaseMilkCost),
			ClassIFee:          float32(r.ClassIFee),
			Shrink:             float32(r.Shrink),
			Processing:         float32(r.Processing),
			Packaging:          float32(r.Packaging),
			Ingredients:        float32(r.Ingredients),
			SellToFee:          float32(r.SellToFee),
			CustomLabelFee:     float32(r.CustomLabelFee),
			PalletFee:          float32(r.PalletFee),
			FOB:                float32(r.FOB),
			DeliveryCharge:     float32(r.DeliveryCharge),
			Delivered:          float32(r.Delivered),
			GallonsPerEach:     fromNullable(r.GallonsPerEach),
			GallonsPerCase:     fromNullable(r.GallonsPerCase),
		}
	}
	return rows, nil
}
