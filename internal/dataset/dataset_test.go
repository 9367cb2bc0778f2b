package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRecordsJSONArray(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "input.json", `[
		{"photo_id": "1"},
		{"photo_id": "2"}
	]`)

	records, err := LoadRecords(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.JSONEq(t, `{"photo_id": "1"}`, string(records[0]))
}

func TestLoadRecordsJSONL(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "input.jsonl", `{"photo_id": "1"}

{"photo_id": "2"}
`)

	records, err := LoadRecords(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestLoadRecordsSkipsMalformedJSONLLines(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "input.jsonl", `{"photo_id": "1"}
{not json at all
{"photo_id": "3"}
`)

	records, err := LoadRecords(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.JSONEq(t, `{"photo_id": "3"}`, string(records[1]))
}

func TestLoadRecordsBadTopLevelArrayIsFatal(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "input.json", `[{"photo_id": "1"},`)

	_, err := LoadRecords(path, zap.NewNop())
	require.Error(t, err)
}

func TestLoadRecordsMissingFileIsFatal(t *testing.T) {
	t.Parallel()
	_, err := LoadRecords(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())
	require.Error(t, err)
}

func TestLoadRecordsEmptyFile(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "input.json", "")

	records, err := LoadRecords(path, zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, records)
}
