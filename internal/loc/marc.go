package loc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pnpdata/harvester/internal/harvest"
)

// DefaultMARCEndpoint is the permalink service serving MARCXML per LCCN.
const DefaultMARCEndpoint = "https://lccn.loc.gov"

// MARCResult is the payload stored per LCCN: where the record landed.
type MARCResult struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// MARCClient downloads MARCXML records into a local directory, one file per
// LCCN. The progress store tracks which LCCNs are settled; the XML itself
// stays on disk next to it.
type MARCClient struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	outputDir  string
	logger     *zap.Logger
}

// NewMARCClient builds a MARCClient writing into outputDir. An empty
// endpoint means the public permalink service.
func NewMARCClient(endpoint, userAgent string, timeout time.Duration, outputDir string, logger *zap.Logger) *MARCClient {
	if endpoint == "" {
		endpoint = DefaultMARCEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MARCClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		userAgent:  userAgent,
		outputDir:  outputDir,
		logger:     logger,
	}
}

// Fetch downloads the MARCXML for the LCCN in item.Key and writes it to
// <outputDir>/<lccn>.xml.
func (c *MARCClient) Fetch(ctx context.Context, item harvest.WorkItem) (harvest.Outcome, error) {
	url := fmt.Sprintf("%s/%s/marcxml", c.endpoint, item.Key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("build marc request for %s: %w", item.Key, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("download marc for %s: %w", item.Key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return harvest.NotFound(), nil
	case resp.StatusCode != http.StatusOK:
		return harvest.Outcome{}, fmt.Errorf("download marc for %s: status %d", item.Key, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("read marc response for %s: %w", item.Key, err)
	}

	if err := os.MkdirAll(c.outputDir, 0o750); err != nil {
		return harvest.Outcome{}, fmt.Errorf("create marc output dir: %w", err)
	}
	path := filepath.Join(c.outputDir, item.Key+".xml")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return harvest.Outcome{}, fmt.Errorf("write marc file %s: %w", path, err)
	}

	payload, err := json.Marshal(MARCResult{Path: path, Bytes: len(body)})
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("marshal marc result for %s: %w", item.Key, err)
	}
	return harvest.Success(payload), nil
}
