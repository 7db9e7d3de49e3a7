// Package relational adapts GORM + Postgres as the fundamentals store
// (§3, §4.H): stocks, company overviews, financial statements, daily
// prices, and news/news_stocks. Models follow the teacher's
// database/models_pkg tagging conventions (gorm struct tags, explicit
// TableName methods).
package relational

import "time"

// Stock is one row in the stocks table — the fundamentals sync's
// reference table of tradeable symbols.
type Stock struct {
	Symbol    string `gorm:"size:16;primaryKey" json:"symbol"`
	Name      string `gorm:"size:255" json:"name"`
	Exchange  string `gorm:"size:32" json:"exchange"`
	AssetType string `gorm:"size:32" json:"asset_type"`
	IPODate   *time.Time `json:"ipo_date,omitempty"`
	Status    string `gorm:"size:16" json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Stock) TableName() string { return "stocks" }

// CompanyOverview is one row in company_overview, refreshed weekly per
// spec.md §4.G.
type CompanyOverview struct {
	Symbol              string   `gorm:"size:16;primaryKey" json:"symbol"`
	AssetType           string   `gorm:"size:32" json:"asset_type"`
	Name                string   `gorm:"size:255" json:"name"`
	Description         string   `gorm:"type:text" json:"description"`
	Exchange             string   `gorm:"size:32" json:"exchange"`
	Currency            string   `gorm:"size:8" json:"currency"`
	Country             string   `gorm:"size:64" json:"country"`
	Sector              string   `gorm:"size:128" json:"sector"`
	Industry            string   `gorm:"size:128" json:"industry"`
	MarketCapitalization *float64 `json:"market_capitalization,omitempty"`
	PERatio             *float64 `json:"pe_ratio,omitempty"`
	DividendYield       *float64 `json:"dividend_yield,omitempty"`
	EPS                 *float64 `json:"eps,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (CompanyOverview) TableName() string { return "company_overview" }

// IncomeStatement is one fiscalDateEnding row for a symbol, refreshed
// quarterly.
type IncomeStatement struct {
	Symbol              string    `gorm:"size:16;primaryKey" json:"symbol"`
	FiscalDateEnding    time.Time `gorm:"primaryKey" json:"fiscal_date_ending"`
	ReportedCurrency    string    `gorm:"size:8" json:"reported_currency"`
	TotalRevenue        *float64  `json:"total_revenue,omitempty"`
	GrossProfit         *float64  `json:"gross_profit,omitempty"`
	NetIncome           *float64  `json:"net_income,omitempty"`
	OperatingIncome     *float64  `json:"operating_income,omitempty"`
	EBITDA              *float64  `json:"ebitda,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (IncomeStatement) TableName() string { return "income_statements" }

// BalanceSheet is one fiscalDateEnding row for a symbol, refreshed
// quarterly.
type BalanceSheet struct {
	Symbol              string    `gorm:"size:16;primaryKey" json:"symbol"`
	FiscalDateEnding    time.Time `gorm:"primaryKey" json:"fiscal_date_ending"`
	ReportedCurrency    string    `gorm:"size:8" json:"reported_currency"`
	TotalAssets         *float64  `json:"total_assets,omitempty"`
	TotalLiabilities    *float64  `json:"total_liabilities,omitempty"`
	TotalShareholderEquity *float64 `json:"total_shareholder_equity,omitempty"`
	CashAndEquivalents  *float64  `json:"cash_and_equivalents,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (BalanceSheet) TableName() string { return "balance_sheets" }

// CashFlow is one fiscalDateEnding row for a symbol, refreshed quarterly.
type CashFlow struct {
	Symbol                   string    `gorm:"size:16;primaryKey" json:"symbol"`
	FiscalDateEnding         time.Time `gorm:"primaryKey" json:"fiscal_date_ending"`
	ReportedCurrency         string    `gorm:"size:8" json:"reported_currency"`
	OperatingCashflow        *float64  `json:"operating_cashflow,omitempty"`
	CashflowFromInvestment   *float64  `json:"cashflow_from_investment,omitempty"`
	CashflowFromFinancing    *float64  `json:"cashflow_from_financing,omitempty"`
	NetIncome                *float64  `json:"net_income,omitempty"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func (CashFlow) TableName() string { return "cash_flows" }

// NewsArticle is one deduplicated row keyed by URL per spec.md §4.G news
// handling (the "url → id" map lets callers look up the row to link
// against in news_stocks without a second select).
type NewsArticle struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	URL       string    `gorm:"size:1024;uniqueIndex" json:"url"`
	Title     string    `gorm:"size:512" json:"title"`
	Summary   string    `gorm:"type:text" json:"summary"`
	Source    string    `gorm:"size:128" json:"source"`
	Category  string    `gorm:"size:64" json:"category"`
	Sentiment *float64  `json:"sentiment,omitempty"`
	TimePublished time.Time `json:"time_published"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (NewsArticle) TableName() string { return "news_articles" }

// NewsStock is one (news_article, symbol) join row, restricted to
// watchlist symbols per spec.md §4.G.
type NewsStock struct {
	NewsID         int64  `gorm:"primaryKey" json:"news_id"`
	Symbol         string `gorm:"primaryKey;size:16" json:"symbol"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (NewsStock) TableName() string { return "news_stocks" }

// DailyPrice is one OHLCV row for a symbol on a date, refreshed daily.
type DailyPrice struct {
	Symbol string    `gorm:"size:16;primaryKey" json:"symbol"`
	Date   time.Time `gorm:"primaryKey" json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DailyPrice) TableName() string { return "daily_prices" }
