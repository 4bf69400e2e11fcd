package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Observation is one raw listing record as delivered by a listing source
// for a single scrape run. Observations are ephemeral: the reconciliation
// engine reads them and never stores them as-is.
type Observation struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Price   int    `json:"price"`
	Year    *int   `json:"year"`
	Mileage *int   `json:"mileage"`
	URL     string `json:"url"`
	Model   string `json:"model"`
}

// Valid reports whether the observation may create or update a ledger entry.
// A missing external id or a non-positive price marks a broken extraction;
// such records must never reach the price history.
func (o Observation) Valid() bool {
	return o.ID != "" && o.Price > 0
}

// PriceReading is a single timestamped price observation. On disk it is a
// two-element array [timestamp, price], the shape the companion tooling
// reads, so it carries custom JSON marshalling.
type PriceReading struct {
	Timestamp int64
	Price     int
}

// MarshalJSON encodes the reading as [timestamp, price].
func (r PriceReading) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{r.Timestamp, int64(r.Price)})
}

// UnmarshalJSON decodes a [timestamp, price] pair.
func (r *PriceReading) UnmarshalJSON(data []byte) error {
	var pair [2]int64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("domain: price reading must be a [timestamp, price] pair: %w", err)
	}
	r.Timestamp = pair[0]
	r.Price = int(pair[1])
	return nil
}

// Date returns the reading's calendar day in UTC, formatted YYYY-MM-DD.
func (r PriceReading) Date() string {
	return time.Unix(r.Timestamp, 0).UTC().Format("2006-01-02")
}

// Listing is one ledger entry: the current state of a unique external
// listing id within a model, plus its appended price history.
//
// InitialPrice and FirstSeen are set at creation and never change.
// PriceChange records the delta of the most recent price change event; it is
// not reset by observations that leave the price unchanged. Entries are never
// deleted: a listing that stops appearing in scrapes is retained as-is.
type Listing struct {
	ID                   string         `json:"id"`
	InternalID           int            `json:"internal_id"`
	Title                string         `json:"title"`
	InitialPrice         int            `json:"initial_price"`
	CurrentPrice         int            `json:"current_price"`
	Year                 *int           `json:"year"`
	Mileage              *int           `json:"mileage"`
	URL                  string         `json:"url"`
	Model                string         `json:"model"`
	FirstSeen            string         `json:"first_seen"`
	LastSeen             string         `json:"last_seen"`
	FirstScrapeTimestamp int64          `json:"first_scrape_timestamp"`
	LastScrapeTimestamp  int64          `json:"last_scrape_timestamp"`
	PriceChange          int            `json:"price_change"`
	PriceReadings        []PriceReading `json:"price_readings"`
}

// LedgerMetadata summarises a model ledger. Totals are recomputed on every
// save, never incremented.
type LedgerMetadata struct {
	Model              string    `json:"model"`
	LastUpdated        time.Time `json:"last_updated"`
	TotalListings      int       `json:"total_listings"`
	TotalPriceReadings int       `json:"total_price_readings"`
}

// Ledger is the persisted per-model collection of listings. It is loaded,
// mutated, and written back as a single unit.
type Ledger struct {
	Metadata LedgerMetadata      `json:"metadata"`
	Listings map[string]*Listing `json:"listings"`
}

// NewLedger returns an empty ledger for the given model.
func NewLedger(model string) *Ledger {
	return &Ledger{
		Metadata: LedgerMetadata{Model: model},
		Listings: make(map[string]*Listing),
	}
}

// TotalPriceReadings sums the reading counts over all entries.
func (l *Ledger) TotalPriceReadings() int {
	var n int
	for _, entry := range l.Listings {
		n += len(entry.PriceReadings)
	}
	return n
}

// LegacyRecord is one entry of the pre-ledger flat-array file shape: a bare
// JSON array of independent observations with no metadata wrapper. Legacy
// files are accepted read-only.
type LegacyRecord struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Price           int    `json:"price"`
	Year            *int   `json:"year"`
	Mileage         *int   `json:"mileage"`
	URL             string `json:"url"`
	Model           string `json:"model"`
	Date            string `json:"date"`
	ScrapeDate      string `json:"scrape_date"`
	ScrapeTimestamp int64  `json:"scrape_timestamp"`
}
