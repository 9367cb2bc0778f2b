// Package wikidata talks to the Wikidata SPARQL endpoint and the Wikipedia
// API, classifying responses into harvest outcomes.
//
// Denied or throttled responses (401/403/429) are deliberately treated as
// transient, never as not-found: only a definitive 404 or an explicit empty
// result gets cached across runs.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/pnpdata/harvester/internal/harvest"
)

// DefaultSPARQLEndpoint is the public Wikidata query service.
const DefaultSPARQLEndpoint = "https://query.wikidata.org/sparql"

const statementQuery = `
SELECT ?wdLabel ?p ?ps_ ?ps_Label {
    VALUES (?entity) {(wd:%s)}

    ?entity ?p ?statement .
    ?statement ?ps ?ps_ .

    ?wd wikibase:claim ?p.
    ?wd wikibase:statementProperty ?ps.
    ?wd wikibase:propertyType ?dataType .

    FILTER (?dataType != wikibase:ExternalId)
    SERVICE wikibase:label {
      bd:serviceParam wikibase:language "en, [AUTO_LANGUAGE]" .
    }
} ORDER BY ?wd ?statement ?ps_
`

var (
	propertyIDPattern = regexp.MustCompile(`/prop/(P\d+)`)
	entityIDPattern   = regexp.MustCompile(`/entity/(Q\d+)`)
)

// Statement is one property/value pair on an entity.
type Statement struct {
	Property      string `json:"property"`
	PropertyLabel string `json:"property_label,omitempty"`
	Value         string `json:"value"`
	ValueLabel    string `json:"value_label,omitempty"`
}

// StatementsResult is the payload stored per QID.
type StatementsResult struct {
	QID        string      `json:"qid"`
	Statements []Statement `json:"statements"`
}

// Client downloads entity statements via SPARQL.
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	logger     *zap.Logger
}

// NewClient builds a Client against endpoint (empty means the public query
// service).
func NewClient(endpoint, userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultSPARQLEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		userAgent:  userAgent,
		logger:     logger,
	}
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Fetch downloads all non-external-id statements for the QID in item.Key.
func (c *Client) Fetch(ctx context.Context, item harvest.WorkItem) (harvest.Outcome, error) {
	query := fmt.Sprintf(statementQuery, item.Key)
	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("build sparql request for %s: %w", item.Key, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("query wikidata for %s: %w", item.Key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return harvest.NotFound(), nil
	case resp.StatusCode != http.StatusOK:
		return harvest.Outcome{}, fmt.Errorf("query wikidata for %s: status %d", item.Key, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("read sparql response for %s: %w", item.Key, err)
	}
	var parsed sparqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return harvest.Outcome{}, fmt.Errorf("parse sparql response for %s: %w", item.Key, err)
	}

	result := StatementsResult{QID: item.Key, Statements: make([]Statement, 0, len(parsed.Results.Bindings))}
	for _, binding := range parsed.Results.Bindings {
		stmt := Statement{
			Property:      shortenID(binding["p"].Value, propertyIDPattern),
			PropertyLabel: binding["wdLabel"].Value,
			ValueLabel:    binding["ps_Label"].Value,
		}
		value := binding["ps_"]
		if value.Type == "uri" {
			stmt.Value = shortenID(value.Value, entityIDPattern)
		} else {
			stmt.Value = value.Value
		}
		result.Statements = append(result.Statements, stmt)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("marshal statements for %s: %w", item.Key, err)
	}
	return harvest.Success(payload), nil
}

// shortenID reduces a Wikidata URI to its bare P/Q identifier, leaving
// anything unrecognized untouched.
func shortenID(uri string, pattern *regexp.Regexp) string {
	if m := pattern.FindStringSubmatch(uri); m != nil {
		return m[1]
	}
	return uri
}
