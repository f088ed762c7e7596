package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/ranker"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/report"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
)

const (
	scienceText  = "Data science uses data. Models improve data science."
	learningText = "Machine learning models learn patterns. Learning needs careful engineering."
)

func writeDoc(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func expectedReport(t *testing.T, text, filter string, top int) string {
	t.Helper()
	cfg, err := pipeline.NewConfig(config.Default().Extraction)
	require.NoError(t, err)
	res := pipeline.New(cfg).Extract(context.Background(), text)
	return report.Format(ranker.Rank(res.Keywords, filter, top))
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	cmd.SetOut(&stderr)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSingleDocumentToStdout(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "notes.txt", scienceText)

	out, _, err := execute(t, path, "--top", "3")
	require.NoError(t, err)
	assert.Equal(t, expectedReport(t, scienceText, "", 3)+"\n", out)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestFilterAndOutFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "notes.txt", scienceText)
	target := filepath.Join(dir, "extracted_keywords.txt")

	out, _, err := execute(t, "--file", path, "--filter", "data", "--top", "0", "--out", target)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, expectedReport(t, scienceText, "data", 0), string(data))
	for _, line := range strings.Split(string(data), "\n") {
		assert.Contains(t, line, "data")
	}
}

func TestManyDocumentsKeepInputOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", scienceText)
	b := writeDoc(t, dir, "b.txt", learningText)

	out, _, err := execute(t, a, b, "--workers", "2", "-n", "2")
	require.NoError(t, err)
	want := "==> " + a + " <==\n" + expectedReport(t, scienceText, "", 2) + "\n\n" +
		"==> " + b + " <==\n" + expectedReport(t, learningText, "", 2) + "\n"
	assert.Equal(t, want, out)
}

func TestOutDirWritesOneReportPerDocument(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", scienceText)
	b := writeDoc(t, dir, "b.txt", learningText)

	_, _, err := execute(t, a, b, "--out-dir", outDir)
	require.NoError(t, err)

	for name, text := range map[string]string{"a.keywords.txt": scienceText, "b.keywords.txt": learningText} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Equal(t, expectedReport(t, text, "", config.Default().Extraction.DefaultTopK), string(data))
	}
}

func TestFailedDocumentDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "good.txt", scienceText)
	bad := writeDoc(t, dir, "sheet.xlsx", "a,b,c")
	missing := filepath.Join(dir, "missing.txt")

	out, logs, err := execute(t, good, bad, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 documents failed")
	assert.Contains(t, out, "==> "+good+" <==")
	assert.NotContains(t, out, "sheet.xlsx")
	assert.Contains(t, logs, "document failed")
}

func TestArgumentErrors(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", scienceText)
	b := writeDoc(t, dir, "b.txt", learningText)

	_, _, err := execute(t)
	assert.ErrorContains(t, err, "no input documents")

	_, _, err = execute(t, a, b, "--out", filepath.Join(dir, "x.txt"))
	assert.ErrorContains(t, err, "single document")

	_, _, err = execute(t, a, "--out", "x", "--out-dir", dir)
	assert.ErrorContains(t, err, "mutually exclusive")

	_, _, err = execute(t, a, "--top", "-2")
	assert.ErrorContains(t, err, "must not be negative")
}
