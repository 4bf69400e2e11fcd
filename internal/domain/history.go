package domain

// HistoryRow is one point-in-time observation in the flattened historical
// view: either an entry's current state or one of its past price readings.
// Rows are not globally time-sorted; ordering is the consumer's concern.
type HistoryRow struct {
	ID string
	// InternalID is the decimal internal sequence number. For rows built
	// from legacy flat-array files, which predate identity mapping, it
	// falls back to the external id itself.
	InternalID      string
	Title           string
	Price           int
	Year            *int
	Mileage         *int
	URL             string
	Model           string
	Date            string
	ScrapeTimestamp int64
}

// ModelStatus is the per-model operational summary reported by the status
// reporter. Errors reading one model are captured here rather than failing
// the whole status run.
type ModelStatus struct {
	Model              string
	TotalListings      int
	TotalPriceReadings int
	LastUpdated        string
	FileSize           int64
	Legacy             bool
	Error              string
}

// ModelStats holds summary statistics over one model's ledger.
type ModelStats struct {
	Model               string
	TotalListings       int
	WithPriceChanges    int
	AverageCurrentPrice float64
}
