package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestAppendCreatesWithHeader(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir)

	header := []string{"username", "score", "content"}
	err := s.Append("qinghai/comments.csv", header, [][]string{
		{"张三", "5", "很棒"},
		{"李四", "4", "不错"},
	})
	require.NoError(t, err)

	rows := readAll(t, filepath.Join(dir, "qinghai/comments.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"张三", "5", "很棒"}, rows[1])
}

func TestAppendSameHeaderNoRewrite(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir)

	header := []string{"username", "score"}
	require.NoError(t, s.Append("out.csv", header, [][]string{{"a", "1"}}))
	require.NoError(t, s.Append("out.csv", header, [][]string{{"b", "2"}}))

	rows := readAll(t, filepath.Join(dir, "out.csv"))
	require.Len(t, rows, 3, "header written once, rows accumulate")
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"a", "1"}, rows[1])
	assert.Equal(t, []string{"b", "2"}, rows[2])
}

func TestAppendHeaderMismatchRewrites(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir)

	require.NoError(t, s.Append("out.csv", []string{"username", "score"}, [][]string{
		{"a", "1"},
		{"b", "2"},
	}))

	wider := []string{"username", "score", "content"}
	require.NoError(t, s.Append("out.csv", wider, [][]string{{"c", "3", "text"}}))

	rows := readAll(t, filepath.Join(dir, "out.csv"))
	require.Len(t, rows, 4)
	assert.Equal(t, wider, rows[0], "single header after rewrite")
	assert.Equal(t, []string{"a", "1", ""}, rows[1], "old rows padded to the new width")
	assert.Equal(t, []string{"b", "2", ""}, rows[2])
	assert.Equal(t, []string{"c", "3", "text"}, rows[3])
}

func TestAppendHeaderShrinkTruncates(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir)

	require.NoError(t, s.Append("out.csv", []string{"username", "score", "content"}, [][]string{
		{"a", "1", "text"},
	}))

	narrow := []string{"username", "score"}
	require.NoError(t, s.Append("out.csv", narrow, [][]string{{"b", "2"}}))

	rows := readAll(t, filepath.Join(dir, "out.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, narrow, rows[0])
	assert.Equal(t, []string{"a", "1"}, rows[1], "old rows truncated to the new width")
	assert.Equal(t, []string{"b", "2"}, rows[2])
}

func TestAppendEmptyExistingFile(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.csv"), nil, 0o644))

	header := []string{"username"}
	require.NoError(t, s.Append("out.csv", header, [][]string{{"a"}}))

	rows := readAll(t, filepath.Join(dir, "out.csv"))
	require.Len(t, rows, 2, "zero-length file is treated as new")
	assert.Equal(t, header, rows[0])
}
