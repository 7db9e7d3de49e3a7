// Package vendorapi wraps the fundamentals vendor's REST API (§4.B): a
// single GET /query endpoint, rate-limited to 5 requests per 60 seconds,
// with per-function typed parsers. HTTP plumbing follows the teacher's
// auth.AuthClient shape (plain *http.Client with a fixed timeout, manual
// request building, json.Unmarshal over the read body).
package vendorapi

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketdata-pipeline/helpers"
)

const (
	requestTimeout = 30 * time.Second
	rateWindow     = 60 * time.Second
	rateLimit      = 5
)

// Client talks to the fundamentals vendor's query API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rateLimiter
}

// NewClient builds a Client against baseURL, authenticating every request
// with apiKey as the apikey query parameter.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    newRateLimiter(rateWindow, rateLimit),
	}
}

// query performs a rate-limited GET /query with the given extra params,
// returning the raw response body. A non-2xx status, an "Error Message"
// substring, or a "Note" substring in the body are all reported as a nil
// body with ok=false, per spec.md §4.B response handling — the caller
// cannot distinguish these cases and isn't meant to. The two substring
// checks are skipped for LISTING_STATUS, whose body is CSV.
func (c *Client) query(function string, params map[string]string) (body []byte, ok bool, err error) {
	c.limiter.wait()

	q := url.Values{}
	q.Set("function", function)
	q.Set("apikey", c.apiKey)
	for k, v := range params {
		q.Set(k, v)
	}

	reqURL := c.baseURL + "/query?" + q.Encode()
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("vendorapi: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("vendorapi: request %s: %w", function, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("vendorapi: read response %s: %w", function, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, nil
	}
	if function != "LISTING_STATUS" {
		if strings.Contains(string(raw), "Error Message") || strings.Contains(string(raw), "Note") {
			return nil, false, nil
		}
	}

	return raw, true, nil
}

// DailyPrice is one TIME_SERIES_DAILY row.
type DailyPrice struct {
	Symbol string
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *int64
}

// TimeSeriesDaily pulls daily OHLCV rows for symbol, filtered to rows where
// open/high/low/close are all non-null and sorted ascending by date, per
// spec.md §4.B.
func (c *Client) TimeSeriesDaily(symbol, outputsize string) ([]DailyPrice, bool, error) {
	raw, ok, err := c.query("TIME_SERIES_DAILY", map[string]string{
		"symbol":     symbol,
		"outputsize": outputsize,
	})
	if err != nil || !ok {
		return nil, ok, err
	}

	var payload struct {
		TimeSeries map[string]struct {
			Open   string `json:"1. open"`
			High   string `json:"2. high"`
			Low    string `json:"3. low"`
			Close  string `json:"4. close"`
			Volume string `json:"5. volume"`
		} `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false, fmt.Errorf("vendorapi: decode TIME_SERIES_DAILY: %w", err)
	}

	rows := make([]DailyPrice, 0, len(payload.TimeSeries))
	for dateStr, v := range payload.TimeSeries {
		date := helpers.SafeDate(dateStr)
		if date == nil {
			continue
		}
		row := DailyPrice{
			Symbol: symbol,
			Date:   *date,
			Open:   helpers.SafeFloat(v.Open),
			High:   helpers.SafeFloat(v.High),
			Low:    helpers.SafeFloat(v.Low),
			Close:  helpers.SafeFloat(v.Close),
			Volume: helpers.SafeInt(v.Volume),
		}
		if row.Open == nil || row.High == nil || row.Low == nil || row.Close == nil {
			continue
		}
		rows = append(rows, row)
	}

	sortDailyPricesAsc(rows)
	return rows, true, nil
}

func sortDailyPricesAsc(rows []DailyPrice) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].Date.Before(rows[j-1].Date); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

// Listing is one LISTING_STATUS row.
type Listing struct {
	Symbol    string
	Name      string
	Exchange  string
	AssetType string
	IPODate   *time.Time
	Status    string
}

// ListingStatus pulls the full symbol directory (CSV body, per spec.md
// §4.B) filtered to watchlist.
func (c *Client) ListingStatus(watchlist []string) ([]Listing, bool, error) {
	raw, ok, err := c.query("LISTING_STATUS", nil)
	if err != nil || !ok {
		return nil, ok, err
	}

	allowed := make(map[string]bool, len(watchlist))
	for _, s := range watchlist {
		allowed[s] = true
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("vendorapi: decode LISTING_STATUS: %w", err)
	}
	if len(records) == 0 {
		return nil, true, nil
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	var out []Listing
	for _, rec := range records[1:] {
		symbol := field(rec, col, "symbol")
		if !allowed[symbol] {
			continue
		}
		out = append(out, Listing{
			Symbol:    symbol,
			Name:      field(rec, col, "name"),
			Exchange:  field(rec, col, "exchange"),
			AssetType: field(rec, col, "assetType"),
			IPODate:   helpers.SafeDate(field(rec, col, "ipoDate")),
			Status:    field(rec, col, "status"),
		})
	}
	return out, true, nil
}

func field(rec []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// Overview is one OVERVIEW record.
type Overview struct {
	Symbol               string
	AssetType            string
	Name                 string
	Description          string
	Exchange             string
	Currency             string
	Country              string
	Sector               string
	Industry             string
	MarketCapitalization *float64
	PERatio              *float64
	DividendYield        *float64
	EPS                  *float64
}

// Overview pulls one OVERVIEW record for symbol.
func (c *Client) Overview(symbol string) (*Overview, bool, error) {
	raw, ok, err := c.query("OVERVIEW", map[string]string{"symbol": symbol})
	if err != nil || !ok {
		return nil, ok, err
	}

	var payload struct {
		Symbol               string `json:"Symbol"`
		AssetType            string `json:"AssetType"`
		Name                 string `json:"Name"`
		Description          string `json:"Description"`
		Exchange             string `json:"Exchange"`
		Currency             string `json:"Currency"`
		Country              string `json:"Country"`
		Sector               string `json:"Sector"`
		Industry             string `json:"Industry"`
		MarketCapitalization string `json:"MarketCapitalization"`
		PERatio              string `json:"PERatio"`
		DividendYield        string `json:"DividendYield"`
		EPS                  string `json:"EPS"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false, fmt.Errorf("vendorapi: decode OVERVIEW: %w", err)
	}

	return &Overview{
		Symbol:               payload.Symbol,
		AssetType:            payload.AssetType,
		Name:                 payload.Name,
		Description:          payload.Description,
		Exchange:             payload.Exchange,
		Currency:             payload.Currency,
		Country:              payload.Country,
		Sector:               payload.Sector,
		Industry:             payload.Industry,
		MarketCapitalization: helpers.SafeFloat(payload.MarketCapitalization),
		PERatio:              helpers.SafeFloat(payload.PERatio),
		DividendYield:        helpers.SafeFloat(payload.DividendYield),
		EPS:                  helpers.SafeFloat(payload.EPS),
	}, true, nil
}

// FinancialReport is one annual or quarterly report row for an income
// statement, balance sheet, or cash flow statement. Fields beyond
// FiscalDateEnding/ReportedCurrency are kept in a map of nullable parsed
// floats (helpers.SafeFloat) keyed by vendor field name so each
// statement type's UpsertXxx caller can pick the columns it needs without
// three near-identical structs.
type FinancialReport struct {
	FiscalDateEnding time.Time
	ReportedCurrency string
	IsQuarterly      bool
	Fields           map[string]*float64
}

// FinancialStatement pulls INCOME_STATEMENT, BALANCE_SHEET, or CASH_FLOW
// for symbol, flattening annualReports (IsQuarterly=false) and
// quarterlyReports (IsQuarterly=true) into one slice, per spec.md §4.G.
func (c *Client) FinancialStatement(function, symbol string) ([]FinancialReport, bool, error) {
	raw, ok, err := c.query(function, map[string]string{"symbol": symbol})
	if err != nil || !ok {
		return nil, ok, err
	}

	var payload struct {
		Symbol           string              `json:"symbol"`
		AnnualReports    []map[string]string `json:"annualReports"`
		QuarterlyReports []map[string]string `json:"quarterlyReports"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false, fmt.Errorf("vendorapi: decode %s: %w", function, err)
	}

	var out []FinancialReport
	out = append(out, flattenReports(payload.AnnualReports, false)...)
	out = append(out, flattenReports(payload.QuarterlyReports, true)...)
	return out, true, nil
}

func flattenReports(reports []map[string]string, quarterly bool) []FinancialReport {
	out := make([]FinancialReport, 0, len(reports))
	for _, rec := range reports {
		date := helpers.SafeDate(rec["fiscalDateEnding"])
		if date == nil {
			continue
		}
		fields := make(map[string]*float64, len(rec))
		for k, v := range rec {
			if k == "fiscalDateEnding" || k == "reportedCurrency" {
				continue
			}
			fields[k] = helpers.SafeFloat(v)
		}
		out = append(out, FinancialReport{
			FiscalDateEnding: *date,
			ReportedCurrency: rec["reportedCurrency"],
			IsQuarterly:      quarterly,
			Fields:           fields,
		})
	}
	return out
}

// NewsTickerSentiment is one per-ticker sentiment sub-record attached to a
// news item.
type NewsTickerSentiment struct {
	Ticker         string
	RelevanceScore *float64
}

// NewsItem is one NEWS_SENTIMENT record.
type NewsItem struct {
	Title         string
	URL           string
	TimePublished *time.Time
	Summary       string
	Source        string
	Category      string
	Sentiment     *float64
	Tickers       []NewsTickerSentiment
}

// NewsSentiment pulls news for the given comma-joined tickers, filtered by
// timeFrom ("YYYYMMDDTHHMM"), capped at limit items.
func (c *Client) NewsSentiment(tickers []string, timeFrom string, limit int) ([]NewsItem, bool, error) {
	raw, ok, err := c.query("NEWS_SENTIMENT", map[string]string{
		"tickers":   strings.Join(tickers, ","),
		"time_from": timeFrom,
		"limit":     fmt.Sprintf("%d", limit),
	})
	if err != nil || !ok {
		return nil, ok, err
	}

	var payload struct {
		Feed []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			TimePublished string `json:"time_published"`
			Summary       string `json:"summary"`
			Source        string `json:"source"`
			Category      string `json:"category_within_source"`
			OverallScore  string `json:"overall_sentiment_score"`
			TickerSentiment []struct {
				Ticker         string `json:"ticker"`
				RelevanceScore string `json:"relevance_score"`
			} `json:"ticker_sentiment"`
		} `json:"feed"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false, fmt.Errorf("vendorapi: decode NEWS_SENTIMENT: %w", err)
	}

	items := make([]NewsItem, 0, len(payload.Feed))
	for _, f := range payload.Feed {
		tickerScores := make([]NewsTickerSentiment, 0, len(f.TickerSentiment))
		for _, ts := range f.TickerSentiment {
			tickerScores = append(tickerScores, NewsTickerSentiment{
				Ticker:         ts.Ticker,
				RelevanceScore: helpers.SafeFloat(ts.RelevanceScore),
			})
		}
		items = append(items, NewsItem{
			Title:         f.Title,
			URL:           f.URL,
			TimePublished: helpers.SafeNewsTimestamp(f.TimePublished),
			Summary:       f.Summary,
			Source:        f.Source,
			Category:      f.Category,
			Sentiment:     helpers.SafeFloat(f.OverallScore),
			Tickers:       tickerScores,
		})
	}
	return items, true, nil
}
