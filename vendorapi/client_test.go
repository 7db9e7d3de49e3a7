package vendorapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(server.URL, "demo-key")
	c.limiter = newRateLimiter(60_000_000_000, 1_000_000) // effectively unlimited for tests
	return c
}

func TestTimeSeriesDailyFiltersAndSorts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2026-01-03": {"1. open":"10","2. high":"11","3. low":"9","4. close":"10.5","5. volume":"1000"},
				"2026-01-02": {"1. open":"9","2. high":"10","3. low":"8","4. close":"9.5","5. volume":"900"},
				"2026-01-01": {"1. open":"None","2. high":"8","3. low":"7","4. close":"7.5","5. volume":"800"}
			}
		}`))
	})

	rows, ok, err := c.TimeSeriesDaily("ABCD", "compact")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (one dropped for null open), got %d", len(rows))
	}
	if rows[0].Date.After(rows[1].Date) {
		t.Error("expected rows sorted ascending by date")
	}
}

func TestQueryReturnsNotOkOnErrorMessage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call"}`))
	})

	_, ok, err := c.Overview("ABCD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false on Error Message body")
	}
}

func TestQueryReturnsNotOkOnNoteAdvisory(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is ..."}`))
	})

	_, ok, err := c.Overview("ABCD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false on Note advisory body")
	}
}

func TestQueryReturnsNotOkOnHTTPError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, ok, err := c.Overview("ABCD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false on HTTP error status")
	}
}

func TestListingStatusFiltersToWatchlist(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("symbol,name,exchange,assetType,ipoDate,status\nAAAA,Alpha Inc,NYSE,Stock,2010-01-01,Active\nBBBB,Beta Inc,NYSE,Stock,2011-01-01,Active\n"))
	})

	rows, ok, err := c.ListingStatus([]string{"AAAA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if len(rows) != 1 || rows[0].Symbol != "AAAA" {
		t.Fatalf("expected only AAAA, got %+v", rows)
	}
}

func TestFinancialStatementFlattensReports(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"symbol": "ABCD",
			"annualReports": [{"fiscalDateEnding":"2025-12-31","reportedCurrency":"USD","totalRevenue":"1000"}],
			"quarterlyReports": [{"fiscalDateEnding":"2026-03-31","reportedCurrency":"USD","totalRevenue":"300"}]
		}`))
	})

	reports, ok, err := c.FinancialStatement("INCOME_STATEMENT", "ABCD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}

	var annual, quarterly *FinancialReport
	for i := range reports {
		if reports[i].IsQuarterly {
			quarterly = &reports[i]
		} else {
			annual = &reports[i]
		}
	}
	if annual == nil || quarterly == nil {
		t.Fatalf("expected one annual and one quarterly report, got %+v", reports)
	}
	if *annual.Fields["totalRevenue"] != 1000 {
		t.Errorf("annual totalRevenue = %v, want 1000", *annual.Fields["totalRevenue"])
	}
}
