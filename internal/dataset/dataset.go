// Package dataset reads the pipeline's JSON and JSONL input files and turns
// their records into harvest work items.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Scanner buffer large enough for single-line records carrying full photo
// metadata and comment threads.
const maxLineBytes = 4 * 1024 * 1024

// LoadRecords reads a JSON array or JSONL file into raw records. A file that
// cannot be read or whose top level fails to parse is a fatal input error.
// Individual malformed JSONL lines are logged and skipped.
func LoadRecords(path string, logger *zap.Logger) ([]json.RawMessage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input dataset %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("parse input dataset %s: %w", path, err)
		}
		return records, nil
	}

	var records []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record json.RawMessage
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Warn("Skipping malformed JSONL line",
				zap.String("path", path),
				zap.Int("line", lineNo),
				zap.Error(err),
			)
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input dataset %s: %w", path, err)
	}
	return records, nil
}
