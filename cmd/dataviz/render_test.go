package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunRenderHTML(t *testing.T) {
	input := writeFixture(t, "sales.csv", "Region,Sales\nNorth,120\nSouth,98\n")
	output := filepath.Join(t.TempDir(), "out.html")

	path, err := runRender(context.Background(), input, renderOptions{
		kind: "bar", x: "Region", y: "Sales", format: "html", output: output,
	})
	require.NoError(t, err)
	assert.Equal(t, output, path)

	doc, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Bar Chart of Sales")
}

func TestRunRenderPNG(t *testing.T) {
	input := writeFixture(t, "scores.csv", "score\n1\n2\n2\n3\n5\n")
	output := filepath.Join(t.TempDir(), "hist.png")

	_, err := runRender(context.Background(), input, renderOptions{
		kind: "histogram", x: "score", format: "PNG", output: output, theme: "viridis",
	})
	require.NoError(t, err)

	img, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
}

func TestRunRenderErrors(t *testing.T) {
	input := writeFixture(t, "sales.csv", "Region,Sales\nNorth,120\n")

	_, err := runRender(context.Background(), input, renderOptions{kind: "radar", x: "Region"})
	assert.Error(t, err)

	_, err = runRender(context.Background(), input, renderOptions{kind: "bar", x: "Region", y: "Sales", format: "gif"})
	assert.ErrorContains(t, err, "invalid format")

	_, err = runRender(context.Background(), input, renderOptions{kind: "line", x: "Sales", y: "Region", format: "html"})
	assert.ErrorContains(t, err, "Try selecting different columns or chart type.")

	_, err = runRender(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), renderOptions{kind: "bar", x: "Region", format: "html"})
	assert.ErrorContains(t, err, "failed to open")
}

func TestRunInspect(t *testing.T) {
	input := writeFixture(t, "sales.csv", "Region,Sales\nNorth,120\nSouth,98\nNorth,\n")

	var out bytes.Buffer
	require.NoError(t, runInspect(context.Background(), input, &out))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "File uploaded! Found 3 rows and 2 columns."))
	assert.Contains(t, text, "1 missing")
	assert.Contains(t, text, "Chart types: line, bar, scatter, pie, area, histogram")

	names := writeFixture(t, "names.csv", "Name\nAnn\n")
	out.Reset()
	require.NoError(t, runInspect(context.Background(), names, &out))
	assert.Contains(t, out.String(), "No numeric columns found in your data!")
}
