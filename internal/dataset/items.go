package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/pnpdata/harvester/internal/extract"
	"github.com/pnpdata/harvester/internal/harvest"
)

// hdlRecord is the slice of a photo record the LCCN harvest reads.
type hdlRecord struct {
	PhotoID     string `json:"photo_id"`
	HDLURL      string `json:"hdl_url"`
	Description string `json:"description"`
}

// HDLPayload travels with each HDL work item into the progress store.
type HDLPayload struct {
	PhotoID string `json:"photo_id"`
}

// HDLItems builds work items keyed by HDL URL. Truncated URLs are repaired
// from the record description when the archive repeats the identifier
// there; records that stay unrepairable are skipped with a warning.
func HDLItems(records []json.RawMessage, logger *zap.Logger) (harvest.SliceSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	items := make(harvest.SliceSource, 0, len(records))
	for i, raw := range records {
		var rec hdlRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn("Skipping record with unexpected shape",
				zap.Int("record", i),
				zap.Error(err),
			)
			continue
		}
		if rec.HDLURL == "" {
			continue
		}

		hdlURL := rec.HDLURL
		if collection, truncated := extract.IncompleteHDLCollection(hdlURL); truncated {
			fixed, ok := extract.CompleteHDLURL(rec.Description, collection)
			if !ok {
				logger.Warn("Could not repair truncated HDL URL",
					zap.String("photo_id", rec.PhotoID),
					zap.String("hdl_url", hdlURL),
				)
				continue
			}
			hdlURL = fixed
		}

		payload, err := json.Marshal(HDLPayload{PhotoID: rec.PhotoID})
		if err != nil {
			return nil, fmt.Errorf("marshal payload for %s: %w", hdlURL, err)
		}
		items = append(items, harvest.WorkItem{Key: hdlURL, Payload: payload})
	}
	return items, nil
}

// wikiRecord is the slice of a photo record the QID expansion reads.
type wikiRecord struct {
	PhotoID  string   `json:"photo_id"`
	WikiURLs []string `json:"wiki_urls"`
}

// WikiPayload travels with each Wikipedia work item.
type WikiPayload struct {
	Lang  string `json:"lang"`
	Title string `json:"title"`
}

// WikiLinkItems builds work items for Wikipedia article links that need a
// remote QID lookup. Direct Wikidata entity links resolve locally and never
// become work items.
func WikiLinkItems(records []json.RawMessage, logger *zap.Logger) (harvest.SliceSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var items harvest.SliceSource
	for i, raw := range records {
		var rec wikiRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn("Skipping record with unexpected shape",
				zap.Int("record", i),
				zap.Error(err),
			)
			continue
		}
		for _, link := range rec.WikiURLs {
			if _, ok := extract.QIDFromWikidataURL(link); ok {
				continue
			}
			lang, title, ok := extract.ParseWikipediaURL(link)
			if !ok {
				logger.Debug("Ignoring non-article wiki link",
					zap.String("photo_id", rec.PhotoID),
					zap.String("url", link),
				)
				continue
			}
			payload, err := json.Marshal(WikiPayload{Lang: lang, Title: title})
			if err != nil {
				return nil, fmt.Errorf("marshal payload for %s: %w", link, err)
			}
			items = append(items, harvest.WorkItem{Key: link, Payload: payload})
		}
	}
	return items, nil
}

// lccnEntry is the slice of an hdl-to-lccn mapping value the MARC download
// reads.
type lccnEntry struct {
	Result struct {
		LCCN string `json:"lccn"`
	} `json:"result"`
}

// LCCNItems collects the unique LCCNs out of an hdl-to-lccn mapping file.
// Two value shapes occur: a record with a result.lccn field, and a bare
// catalog item URL string. Keys are sorted so enumeration order is stable
// across runs regardless of map iteration.
func LCCNItems(mapping map[string]json.RawMessage, logger *zap.Logger) (harvest.SliceSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	seen := make(map[string]struct{})
	for hdlURL, raw := range mapping {
		lccn := ""
		var asURL string
		if err := json.Unmarshal(raw, &asURL); err == nil {
			lccn, _ = extract.LCCNFromItemURL(asURL)
		} else {
			var entry lccnEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				logger.Warn("Skipping mapping entry with unexpected shape",
					zap.String("hdl_url", hdlURL),
					zap.Error(err),
				)
				continue
			}
			lccn = entry.Result.LCCN
		}
		if lccn == "" {
			continue
		}
		seen[lccn] = struct{}{}
	}

	lccns := make([]string, 0, len(seen))
	for lccn := range seen {
		lccns = append(lccns, lccn)
	}
	sort.Strings(lccns)

	items := make(harvest.SliceSource, 0, len(lccns))
	for _, lccn := range lccns {
		items = append(items, harvest.WorkItem{Key: lccn})
	}
	return items, nil
}

// LoadMapping reads a key -> value JSON object file, e.g. a progress store
// from an earlier pipeline step used as the next step's input.
func LoadMapping(path string, logger *zap.Logger) (map[string]json.RawMessage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file %s: %w", path, err)
	}
	mapping := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parse mapping file %s: %w", path, err)
	}
	return mapping, nil
}

// mapRecord is the slice of a photo record the coordinate extraction reads.
type mapRecord struct {
	PhotoID     string `json:"photo_id"`
	ExpandedURL string `json:"google_maps_url_expanded"`
}

// MapPayload travels with each coordinate work item.
type MapPayload struct {
	URL string `json:"url"`
}

// MapURLItems builds work items for records carrying an expanded maps URL,
// keyed by photo id. Records without one have nothing to extract from and
// are skipped.
func MapURLItems(records []json.RawMessage, logger *zap.Logger) (harvest.SliceSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var items harvest.SliceSource
	for i, raw := range records {
		var rec mapRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn("Skipping record with unexpected shape",
				zap.Int("record", i),
				zap.Error(err),
			)
			continue
		}
		if rec.PhotoID == "" || rec.ExpandedURL == "" {
			continue
		}
		payload, err := json.Marshal(MapPayload{URL: rec.ExpandedURL})
		if err != nil {
			return nil, fmt.Errorf("marshal payload for %s: %w", rec.PhotoID, err)
		}
		items = append(items, harvest.WorkItem{Key: rec.PhotoID, Payload: payload})
	}
	return items, nil
}

// qidRecord is the slice of an expanded record the statement download reads.
type qidRecord struct {
	QIDs    []string `json:"qids"`
	WikiQID string   `json:"wiki_qid"`
}

// QIDItems collects the QIDs referenced by the expanded records. Duplicate
// QIDs across records collapse during enumeration.
func QIDItems(records []json.RawMessage, logger *zap.Logger) (harvest.SliceSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var items harvest.SliceSource
	for i, raw := range records {
		var rec qidRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn("Skipping record with unexpected shape",
				zap.Int("record", i),
				zap.Error(err),
			)
			continue
		}
		qids := rec.QIDs
		if rec.WikiQID != "" {
			qids = append(qids, rec.WikiQID)
		}
		for _, qid := range qids {
			if qid == "" {
				continue
			}
			items = append(items, harvest.WorkItem{Key: qid})
		}
	}
	return items, nil
}
