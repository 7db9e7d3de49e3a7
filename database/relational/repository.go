package relational

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pageSize is the bulk UPSERT batch size, per spec.md §4.G (500-1000 rows
// per round-trip).
const pageSize = 500

// Repository wraps a *gorm.DB with bulk-upsert helpers for each
// fundamentals entity. One method per table, all following the same
// clause.OnConflict DoUpdates shape.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a Repository over an already-migrated db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertStocks bulk-upserts the listing status table, keyed on symbol.
func (r *Repository) UpsertStocks(rows []Stock) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "exchange", "asset_type", "ipo_date", "status", "updated_at"}),
	}).CreateInBatches(rows, pageSize).Error
	if err != nil {
		return fmt.Errorf("relational: upsert stocks: %w", err)
	}
	return nil
}

// UpsertCompanyOverviews bulk-upserts company overview rows, keyed on
// symbol (one row per symbol; weekly job replaces the whole row).
func (r *Repository) UpsertCompanyOverviews(rows []CompanyOverview) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"asset_type", "name", "description", "exchange", "currency", "country",
			"sector", "industry", "market_capitalization", "pe_ratio", "dividend_yield",
			"eps", "updated_at",
		}),
	}).CreateInBatches(rows, pageSize).Error
	if err != nil {
		return fmt.Errorf("relational: upsert company overviews: %w", err)
	}
	return nil
}

// UpsertIncomeStatements bulk-upserts quarterly income statement rows,
// keyed on (symbol, fiscal_date_ending) — idempotent on re-run per
// spec.md §8.
func (r *Repository) UpsertIncomeStatements(rows []IncomeStatement) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "fiscal_date_ending"}},
		DoUpdates: clause.AssignmentColumns([]string{"reported_currency", "total_revenue", "gross_profit", "net_income", "operating_income", "ebitda", "updated_at"}),
	}).CreateInBatches(rows, pageSize).Error
	if err != nil {
		return fmt.Errorf("relational: upsert income statements: %w", err)
	}
	return nil
}

// UpsertBalanceSheets bulk-upserts quarterly balance sheet rows, keyed on
// (symbol, fiscal_date_ending).
func (r *Repository) UpsertBalanceSheets(rows []BalanceSheet) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "fiscal_date_ending"}},
		DoUpdates: clause.AssignmentColumns([]string{"reported_currency", "total_assets", "total_liabilities", "total_shareholder_equity", "cash_and_equivalents", "updated_at"}),
	}).CreateInBatches(rows, pageSize).Error
	if err != nil {
		return fmt.Errorf("relational: upsert balance sheets: %w", err)
	}
	return nil
}

// UpsertCashFlows bulk-upserts quarterly cash flow rows, keyed on
// (symbol, fiscal_date_ending).
func (r *Repository) UpsertCashFlows(rows []CashFlow) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "fiscal_date_ending"}},
		DoUpdates: clause.AssignmentColumns([]string{"reported_currency", "operating_cashflow", "cashflow_from_investment", "cashflow_from_financing", "net_income", "updated_at"}),
	}).CreateInBatches(rows, pageSize).Error
	if err != nil {
		return fmt.Errorf("relational: upsert cash flows: %w", err)
	}
	return nil
}

// UpsertDailyPrices bulk-upserts OHLCV rows, keyed on (symbol, date).
func (r *Repository) UpsertDailyPrices(rows []DailyPrice) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "updated_at"}),
	}).CreateInBatches(rows, pageSize).Error
	if err != nil {
		return fmt.Errorf("relational: upsert daily prices: %w", err)
	}
	return nil
}

// UpsertNewsArticles bulk-upserts news rows keyed on url, then returns the
// url→id map for every row it just wrote (found by re-selecting, since
// CreateInBatches with DoUpdates doesn't populate IDs for conflicted rows).
// The caller uses this map to build news_stocks join rows without a second
// round of individual lookups.
func (r *Repository) UpsertNewsArticles(rows []NewsArticle) (map[string]int64, error) {
	if len(rows) == 0 {
		return map[string]int64{}, nil
	}

	urls := make([]string, 0, len(rows))
	for _, row := range rows {
		urls = append(urls, row.URL)
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "summary", "source", "category", "sentiment", "time_published", "updated_at"}),
	}).CreateInBatches(rows, pageSize).Error
	if err != nil {
		return nil, fmt.Errorf("relational: upsert news articles: %w", err)
	}

	var persisted []NewsArticle
	if err := r.db.Where("url IN ?", urls).Find(&persisted).Error; err != nil {
		return nil, fmt.Errorf("relational: upsert news articles: resolve ids: %w", err)
	}

	idByURL := make(map[string]int64, len(persisted))
	for _, row := range persisted {
		idByURL[row.URL] = row.ID
	}
	return idByURL, nil
}

// UpsertNewsStocks bulk-upserts join rows, keyed on (news_id, symbol).
// Callers are expected to have already filtered symbols to the watchlist
// per spec.md §4.G.
func (r *Repository) UpsertNewsStocks(rows []NewsStock) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "news_id"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"relevance_score", "updated_at"}),
	}).CreateInBatches(rows, pageSize).Error
	if err != nil {
		return fmt.Errorf("relational: upsert news stocks: %w", err)
	}
	return nil
}
