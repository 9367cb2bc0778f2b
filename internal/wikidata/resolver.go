package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/pnpdata/harvester/internal/harvest"
)

const defaultCacheSize = 4096

// Resolver maps Wikipedia articles to their Wikidata QID via the pageprops
// API. Distinct URLs frequently point at the same article (mobile hosts,
// fragment variants), so resolved lang/title pairs are cached.
type Resolver struct {
	httpClient *http.Client
	userAgent  string
	cache      *lru.Cache[string, string]
	logger     *zap.Logger
}

// NewResolver builds a Resolver. cacheSize <= 0 uses a default.
func NewResolver(userAgent string, timeout time.Duration, cacheSize int, logger *zap.Logger) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create qid cache: %w", err)
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		cache:      cache,
		logger:     logger,
	}, nil
}

// QIDResult is the payload stored per Wikipedia link.
type QIDResult struct {
	QID string `json:"qid"`
}

type pagepropsResponse struct {
	Query struct {
		Pages map[string]struct {
			PageProps struct {
				WikibaseItem string `json:"wikibase_item"`
			} `json:"pageprops"`
		} `json:"pages"`
	} `json:"query"`
}

// Fetch resolves one Wikipedia article work item to its QID. The payload
// carries the parsed language and title. An article without a linked
// Wikidata item is NotFound.
func (r *Resolver) Fetch(ctx context.Context, item harvest.WorkItem) (harvest.Outcome, error) {
	var payload struct {
		Lang  string `json:"lang"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return harvest.Outcome{}, fmt.Errorf("decode payload for %s: %w", item.Key, err)
	}
	if payload.Lang == "" || payload.Title == "" {
		return harvest.Outcome{}, fmt.Errorf("work item %s carries no lang/title", item.Key)
	}

	cacheKey := payload.Lang + ":" + payload.Title
	if qid, ok := r.cache.Get(cacheKey); ok {
		return successQID(qid)
	}

	qid, outcome, err := r.lookup(ctx, payload.Lang, payload.Title)
	if err != nil || outcome.Kind != harvest.OutcomeSuccess {
		return outcome, err
	}
	r.cache.Add(cacheKey, qid)
	return outcome, nil
}

func (r *Resolver) lookup(ctx context.Context, lang, title string) (string, harvest.Outcome, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "pageprops")
	params.Set("ppprop", "wikibase_item")
	params.Set("redirects", "1")
	params.Set("format", "json")
	params.Set("titles", title)

	apiURL := fmt.Sprintf("https://%s.wikipedia.org/w/api.php?%s", lang, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", harvest.Outcome{}, fmt.Errorf("build wikipedia request for %s: %w", title, err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", harvest.Outcome{}, fmt.Errorf("query %s.wikipedia.org for %q: %w", lang, title, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", harvest.NotFound(), nil
	case resp.StatusCode != http.StatusOK:
		return "", harvest.Outcome{}, fmt.Errorf("query %s.wikipedia.org for %q: status %d", lang, title, resp.StatusCode)
	}

	var parsed pagepropsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", harvest.Outcome{}, fmt.Errorf("parse wikipedia response for %q: %w", title, err)
	}
	for _, page := range parsed.Query.Pages {
		if page.PageProps.WikibaseItem != "" {
			out, err := successQID(page.PageProps.WikibaseItem)
			return page.PageProps.WikibaseItem, out, err
		}
	}
	return "", harvest.NotFound(), nil
}

func successQID(qid string) (harvest.Outcome, error) {
	payload, err := json.Marshal(QIDResult{QID: qid})
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("marshal qid result: %w", err)
	}
	return harvest.Success(payload), nil
}
