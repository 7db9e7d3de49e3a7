package fundamentals

import (
	"fmt"

	"marketdata-pipeline/database/relational"
)

// WeeklyJob pulls LISTING_STATUS (CSV), filters to the watchlist, bulk
// UPSERTs stocks, then for each symbol pulls OVERVIEW and bulk UPSERTs
// company_overview, per spec.md §4.G.
type WeeklyJob struct {
	Watchlist []string
	Vendor    vendorClient
	Repo      relationalRepo
}

func (j *WeeklyJob) Name() string { return "weekly" }

func (j *WeeklyJob) Run() Result {
	var result Result

	listings, ok, err := j.Vendor.ListingStatus(j.Watchlist)
	if err != nil {
		result.recordError(fmt.Errorf("weekly: listing-status: %w", err))
		return result
	}
	if !ok {
		result.recordError(fmt.Errorf("weekly: listing-status: %w", errNoResponse))
		return result
	}

	stocks := make([]relational.Stock, 0, len(listings))
	for _, l := range listings {
		stocks = append(stocks, relational.Stock{
			Symbol:    l.Symbol,
			Name:      l.Name,
			Exchange:  l.Exchange,
			AssetType: l.AssetType,
			IPODate:   l.IPODate,
			Status:    l.Status,
		})
	}

	if err := j.Repo.UpsertStocks(stocks); err != nil {
		result.recordError(fmt.Errorf("weekly: upsert stocks: %w", err))
	} else {
		result.recordSuccess()
	}

	for _, symbol := range j.Watchlist {
		overview, ok, err := j.Vendor.Overview(symbol)
		if err != nil {
			result.recordError(fmt.Errorf("weekly: overview %s: %w", symbol, err))
			continue
		}
		if !ok {
			result.recordError(fmt.Errorf("weekly: overview %s: %w", symbol, errNoResponse))
			continue
		}

		row := relational.CompanyOverview{
			Symbol:               overview.Symbol,
			AssetType:            overview.AssetType,
			Name:                 overview.Name,
			Description:          overview.Description,
			Exchange:             overview.Exchange,
			Currency:             overview.Currency,
			Country:              overview.Country,
			Sector:               overview.Sector,
			Industry:             overview.Industry,
			MarketCapitalization: overview.MarketCapitalization,
			PERatio:              overview.PERatio,
			DividendYield:        overview.DividendYield,
			EPS:                  overview.EPS,
		}
		if err := j.Repo.UpsertCompanyOverviews([]relational.CompanyOverview{row}); err != nil {
			result.recordError(fmt.Errorf("weekly: upsert overview %s: %w", symbol, err))
			continue
		}
		result.recordSuccess()
	}

	return result
}
