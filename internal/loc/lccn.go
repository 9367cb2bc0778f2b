// Package loc resolves archive HDL URLs to LCCN identifiers by fetching the
// catalog resource page and reading its item links and meta tags.
package loc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/pnpdata/harvester/internal/harvest"
)

// Catalog pages link the item as /pictures/item/<lccn>/.
var lccnPattern = regexp.MustCompile(`/pictures/item/(\d+)`)

// Result is the payload stored per HDL URL.
type Result struct {
	LCCN     string              `json:"lccn"`
	MetaTags map[string][]string `json:"meta_tags,omitempty"`
}

// Client fetches catalog resource pages. One Client is shared across a run;
// each Fetch call clones the collector so callback state stays per-item.
type Client struct {
	collector *colly.Collector
	logger    *zap.Logger
}

// NewClient builds a Client. transport may be nil outside of tests.
func NewClient(userAgent string, timeout time.Duration, transport http.RoundTripper, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(timeout)
	if transport != nil {
		c.WithTransport(transport)
	}
	return &Client{collector: c, logger: logger}
}

// Fetch loads the HDL resource page for item.Key and extracts the LCCN plus
// meta tags. A page without any catalog item link is NotFound: the handle
// resolves but the item has no catalog record to point at.
func (c *Client) Fetch(ctx context.Context, item harvest.WorkItem) (harvest.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return harvest.Outcome{}, err
	}

	result := Result{MetaTags: make(map[string][]string)}
	var (
		statusCode int
		fetchErr   error
	)

	col := c.collector.Clone()
	col.OnHTML(`a[href*="/pictures/item/"]`, func(e *colly.HTMLElement) {
		if result.LCCN != "" {
			return
		}
		if m := lccnPattern.FindStringSubmatch(e.Attr("href")); m != nil {
			result.LCCN = m[1]
		}
	})
	col.OnHTML("meta[name]", func(e *colly.HTMLElement) {
		name := e.Attr("name")
		content := e.Attr("content")
		if name != "" && content != "" {
			result.MetaTags[name] = append(result.MetaTags[name], content)
		}
	})
	col.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := col.Visit(item.Key); err != nil && fetchErr == nil {
		fetchErr = err
	}
	col.Wait()

	if fetchErr != nil {
		if statusCode == http.StatusNotFound {
			return harvest.NotFound(), nil
		}
		return harvest.Outcome{}, fmt.Errorf("fetch %s: %w", item.Key, fetchErr)
	}
	if result.LCCN == "" {
		c.logger.Debug("No catalog item link on page", zap.String("hdl_url", item.Key))
		return harvest.NotFound(), nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("marshal result for %s: %w", item.Key, err)
	}
	return harvest.Success(payload), nil
}
