package fundamentals

import (
	"fmt"

	"marketdata-pipeline/database/relational"
)

// DailyPricesJob pulls TIME_SERIES_DAILY for each symbol and bulk
// UPSERTs into daily_prices, per spec.md §4.G.
type DailyPricesJob struct {
	Symbols    []string
	Outputsize string
	Vendor     vendorClient
	Repo       relationalRepo
}

func (j *DailyPricesJob) Name() string { return "daily-prices" }

func (j *DailyPricesJob) Run() Result {
	var result Result

	for _, symbol := range j.Symbols {
		rows, ok, err := j.Vendor.TimeSeriesDaily(symbol, j.Outputsize)
		if err != nil {
			result.recordError(fmt.Errorf("daily-prices %s: %w", symbol, err))
			continue
		}
		if !ok {
			result.recordError(fmt.Errorf("daily-prices %s: %w", symbol, errNoResponse))
			continue
		}

		dbRows := make([]relational.DailyPrice, 0, len(rows))
		for _, r := range rows {
			dbRows = append(dbRows, relational.DailyPrice{
				Symbol: r.Symbol,
				Date:   r.Date,
				Open:   ptrOrZero(r.Open),
				High:   ptrOrZero(r.High),
				Low:    ptrOrZero(r.Low),
				Close:  ptrOrZero(r.Close),
				Volume: ptrOrZeroInt(r.Volume),
			})
		}

		if err := j.Repo.UpsertDailyPrices(dbRows); err != nil {
			result.recordError(fmt.Errorf("daily-prices %s: upsert: %w", symbol, err))
			continue
		}
		result.recordSuccess()
	}

	return result
}
