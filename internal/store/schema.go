package store

// Dates are stored as ISO text so the schema runs unchanged on sqlite and
// postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS price_components (
		month TEXT NOT NULL,
		item TEXT NOT NULL,
		item_description TEXT NOT NULL,
		item_category TEXT NOT NULL,
		market_index_name TEXT NOT NULL,
		plant TEXT NOT NULL,
		sell_to_bracket TEXT NOT NULL,
		custom_label_bracket TEXT NOT NULL,
		pallet TEXT NOT NULL,
		mileage_tier TEXT NOT NULL,
		drop_tier TEXT NOT NULL,
		base_milk_cost DOUBLE PRECISION NOT NULL,
		class_i_fee DOUBLE PRECISION NOT NULL,
		shrink DOUBLE PRECISION NOT NULL,
		processing DOUBLE PRECISION NOT NULL,
		packaging DOUBLE PRECISION NOT NULL,
		ingredients DOUBLE PRECISION NOT NULL,
		sell_to_fee DOUBLE PRECISION NOT NULL,
		custom_label_fee DOUBLE PRECISION NOT NULL,
		pallet_fee DOUBLE PRECISION NOT NULL,
		fob DOUBLE PRECISION NOT NULL,
		delivery_charge DOUBLE PRECISION NOT NULL,
		delivered DOUBLE PRECISION NOT NULL,
		gallons_per_each DOUBLE PRECISION,
		gallons_per_case DOUBLE PRECISION,
		position INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_components_item ON price_components (item)`,
	`CREATE TABLE IF NOT EXISTS observations (
		series TEXT NOT NULL,
		source TEXT NOT NULL,
		obs_date TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_series ON observations (series, obs_date)`,
	`CREATE TABLE IF NOT EXISTS forecasts (
		series TEXT NOT NULL,
		forecast_date TEXT NOT NULL,
		baseline DOUBLE PRECISION NOT NULL,
		upper_bound DOUBLE PRECISION NOT NULL,
		lower_bound DOUBLE PRECISION NOT NULL,
		history_hash TEXT NOT NULL,
		PRIMARY KEY (series, forecast_date)
	)`,
	`CREATE TABLE IF NOT EXISTS pipeline_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		total_rows INTEGER NOT NULL DEFAULT 0,
		outputs TEXT NOT NULL DEFAULT '',
		warnings INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_started ON pipeline_runs (started_at)`,
}
