// Package fundamentals implements the four named sync jobs (§4.G): daily
// price pulls, daily news pulls, a weekly listing/overview refresh, and a
// quarterly financial-statement refresh. Each Job is run once per process
// invocation by cmd/sync.
package fundamentals

import (
	"fmt"
	"log"
	"time"

	"marketdata-pipeline/database/relational"
	"marketdata-pipeline/vendorapi"
)

// Result is a job's outcome: counts index endpoints, not rows, per
// spec.md §4.G.
type Result struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors"`
}

func (r *Result) recordSuccess() { r.SuccessCount++ }

func (r *Result) recordError(err error) {
	r.ErrorCount++
	r.Errors = append(r.Errors, err.Error())
	log.Printf("❌ fundamentals: %v", err)
}

// Job is one of the four named sync jobs.
type Job interface {
	Name() string
	Run() Result
}

// SyncOutcome is what run_sync returns: {sync_type, timestamp, results|error}.
type SyncOutcome struct {
	SyncType  string    `json:"sync_type"`
	Timestamp time.Time `json:"timestamp"`
	Result    *Result   `json:"results,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// RunSync wraps the selected job, returning {sync_type, timestamp,
// results|error}. The caller uses Failed() to decide the process exit
// code, per spec.md §4.G / §6 CLI contract. A panic inside job.Run() is
// recovered and reported as outcome.Error rather than left to crash the
// process or, worse, unwind into a zero-value success-looking outcome.
func RunSync(job Job) (outcome SyncOutcome) {
	outcome.SyncType = job.Name()
	outcome.Timestamp = time.Now().UTC()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ fundamentals: job %s panicked: %v", job.Name(), r)
			outcome.Result = nil
			outcome.Error = fmt.Sprintf("job %s panicked: %v", job.Name(), r)
		}
	}()

	result := job.Run()
	outcome.Result = &result
	return outcome
}

// Failed reports whether outcome should cause a non-zero exit: either the
// job errored outright or any endpoint recorded an error.
func (o SyncOutcome) Failed() bool {
	if o.Error != "" {
		return true
	}
	return o.Result != nil && o.Result.ErrorCount > 0
}

// relationalRepo is the subset of relational.Repository every job needs,
// named per-method here so job tests can fake it without a real Postgres.
type relationalRepo interface {
	UpsertStocks(rows []relational.Stock) error
	UpsertCompanyOverviews(rows []relational.CompanyOverview) error
	UpsertDailyPrices(rows []relational.DailyPrice) error
	UpsertIncomeStatements(rows []relational.IncomeStatement) error
	UpsertBalanceSheets(rows []relational.BalanceSheet) error
	UpsertCashFlows(rows []relational.CashFlow) error
	UpsertNewsArticles(rows []relational.NewsArticle) (map[string]int64, error)
	UpsertNewsStocks(rows []relational.NewsStock) error
}

// vendorClient is the subset of vendorapi.Client every job needs.
type vendorClient interface {
	TimeSeriesDaily(symbol, outputsize string) ([]vendorapi.DailyPrice, bool, error)
	ListingStatus(watchlist []string) ([]vendorapi.Listing, bool, error)
	Overview(symbol string) (*vendorapi.Overview, bool, error)
	FinancialStatement(function, symbol string) ([]vendorapi.FinancialReport, bool, error)
	NewsSentiment(tickers []string, timeFrom string, limit int) ([]vendorapi.NewsItem, bool, error)
}

func ptrOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func ptrOrZeroInt(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

var errNoResponse = fmt.Errorf("vendor returned no usable response")
