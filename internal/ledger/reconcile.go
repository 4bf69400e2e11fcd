// Package ledger implements the reconciliation engine: the pure merge of a
// freshly scraped observation batch into an existing model ledger. It does
// no I/O; loading and saving the ledger is the caller's job.
package ledger

import (
	"time"

	"github.com/mzurek/carledger/internal/domain"
)

// AssignFunc returns the internal sequence number for a newly observed
// external id. It is only called for ids not yet present in the ledger.
type AssignFunc func(externalID string) int

// Result reports what one reconciliation run did.
type Result struct {
	Total   int // entries in the ledger after the merge
	New     int // entries created by this batch
	Changed int // entries whose price changed
	Skipped int // observations rejected by the price gate
}

// Reconcile merges batch into l in place and recomputes the ledger
// metadata. now stamps every reading and timestamp field; date is the
// scrape day recorded in first_seen/last_seen.
//
// Observations with a missing id or non-positive price are skipped
// entirely. New ids get a fresh entry with one price reading; known ids
// refresh their descriptive fields and last-seen markers, and append a
// reading only when the price actually changed. Entries absent from the
// batch are carried over untouched.
func Reconcile(l *domain.Ledger, batch []domain.Observation, date string, now time.Time, assign AssignFunc) Result {
	var res Result
	ts := now.Unix()

	for _, obs := range batch {
		if !obs.Valid() {
			res.Skipped++
			continue
		}

		entry, ok := l.Listings[obs.ID]
		if !ok {
			l.Listings[obs.ID] = &domain.Listing{
				ID:                   obs.ID,
				InternalID:           assign(obs.ID),
				Title:                obs.Title,
				InitialPrice:         obs.Price,
				CurrentPrice:         obs.Price,
				Year:                 obs.Year,
				Mileage:              obs.Mileage,
				URL:                  obs.URL,
				Model:                l.Metadata.Model,
				FirstSeen:            date,
				LastSeen:             date,
				FirstScrapeTimestamp: ts,
				LastScrapeTimestamp:  ts,
				PriceChange:          0,
				PriceReadings:        []domain.PriceReading{{Timestamp: ts, Price: obs.Price}},
			}
			res.New++
			continue
		}

		// Known listing: refresh descriptive fields and last-seen
		// markers on every observation.
		entry.Title = obs.Title
		entry.Year = obs.Year
		entry.Mileage = obs.Mileage
		entry.URL = obs.URL
		entry.Model = l.Metadata.Model
		entry.LastSeen = date
		entry.LastScrapeTimestamp = ts

		// Append a reading only on an actual price change. PriceChange
		// keeps the delta of the most recent change event, so an
		// unchanged price leaves it alone.
		if obs.Price != entry.CurrentPrice {
			entry.PriceChange = obs.Price - entry.CurrentPrice
			entry.CurrentPrice = obs.Price
			entry.PriceReadings = append(entry.PriceReadings, domain.PriceReading{
				Timestamp: ts,
				Price:     obs.Price,
			})
			res.Changed++
		}
	}

	l.Metadata.LastUpdated = now
	l.Metadata.TotalListings = len(l.Listings)
	l.Metadata.TotalPriceReadings = l.TotalPriceReadings()

	res.Total = len(l.Listings)
	return res
}
