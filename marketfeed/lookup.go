package marketfeed

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const lookupTimeout = 10 * time.Second

// SymbolLookup validates tickers against the vendor's symbol search
// endpoint, matching the original producer's ticker_validator/lookup_ticker
// (symbol_lookup over REST rather than the vendor's Go SDK, which this
// corpus doesn't carry).
type SymbolLookup struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewSymbolLookup builds a SymbolLookup against baseURL (e.g.
// https://finnhub.io), authenticating with token.
func NewSymbolLookup(baseURL, token string) *SymbolLookup {
	return &SymbolLookup{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: lookupTimeout},
	}
}

type searchResponse struct {
	Count  int `json:"count"`
	Result []struct {
		Symbol string `json:"symbol"`
	} `json:"result"`
}

// Exists reports whether ticker resolves to an exact symbol match. Any
// network or decode error is treated as "not found" so a flaky lookup
// degrades to skipping the ticker rather than panicking the ingester.
func (s *SymbolLookup) Exists(ticker string) bool {
	q := url.Values{}
	q.Set("q", ticker)
	q.Set("token", s.token)

	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/api/v1/search?"+q.Encode(), nil)
	if err != nil {
		return false
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false
	}

	for _, r := range parsed.Result {
		if r.Symbol == ticker {
			return true
		}
	}
	return false
}

var _ TickerValidator = (*SymbolLookup)(nil)
