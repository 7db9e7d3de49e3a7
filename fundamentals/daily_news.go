package fundamentals

import (
	"fmt"
	"time"

	"marketdata-pipeline/database/relational"
)

// DailyNewsJob pulls NEWS_SENTIMENT for the full watchlist since
// yesterday 09:00 US/Eastern, bulk UPSERTs news_articles (conflict on
// url), and builds news_stocks rows restricted to the watchlist, per
// spec.md §4.G.
type DailyNewsJob struct {
	Watchlist []string
	Vendor    vendorClient
	Repo      relationalRepo
	Now       func() time.Time
}

func (j *DailyNewsJob) Name() string { return "daily-news" }

func (j *DailyNewsJob) Run() Result {
	var result Result

	timeFrom, err := j.computeTimeFrom()
	if err != nil {
		result.recordError(fmt.Errorf("daily-news: %w", err))
		return result
	}

	items, ok, err := j.Vendor.NewsSentiment(j.Watchlist, timeFrom, 200)
	if err != nil {
		result.recordError(fmt.Errorf("daily-news: %w", err))
		return result
	}
	if !ok {
		result.recordError(fmt.Errorf("daily-news: %w", errNoResponse))
		return result
	}

	watchlist := make(map[string]bool, len(j.Watchlist))
	for _, s := range j.Watchlist {
		watchlist[s] = true
	}

	articles := make([]relational.NewsArticle, 0, len(items))
	for _, item := range items {
		var timePublished time.Time
		if item.TimePublished != nil {
			timePublished = *item.TimePublished
		}
		articles = append(articles, relational.NewsArticle{
			URL:           item.URL,
			Title:         item.Title,
			Summary:       item.Summary,
			Source:        item.Source,
			Category:      item.Category,
			Sentiment:     item.Sentiment,
			TimePublished: timePublished,
		})
	}

	idByURL, err := j.Repo.UpsertNewsArticles(articles)
	if err != nil {
		result.recordError(fmt.Errorf("daily-news: upsert articles: %w", err))
		return result
	}
	result.recordSuccess()

	var joinRows []relational.NewsStock
	for _, item := range items {
		newsID, ok := idByURL[item.URL]
		if !ok {
			continue
		}
		for _, ts := range item.Tickers {
			if !watchlist[ts.Ticker] {
				continue
			}
			joinRows = append(joinRows, relational.NewsStock{
				NewsID:         newsID,
				Symbol:         ts.Ticker,
				RelevanceScore: ts.RelevanceScore,
			})
		}
	}

	if err := j.Repo.UpsertNewsStocks(joinRows); err != nil {
		result.recordError(fmt.Errorf("daily-news: upsert news_stocks: %w", err))
		return result
	}
	result.recordSuccess()

	return result
}

// computeTimeFrom renders yesterday 09:00 US/Eastern, converted to UTC,
// as "YYYYMMDDTHHMM".
func (j *DailyNewsJob) computeTimeFrom() (string, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return "", fmt.Errorf("load US/Eastern location: %w", err)
	}

	yesterday := now().In(loc).AddDate(0, 0, -1)
	anchor := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 9, 0, 0, 0, loc)

	return anchor.UTC().Format("20060102T1504"), nil
}
