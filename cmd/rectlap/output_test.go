package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/rectlap/config"
	"github.com/lixenwraith/rectlap/geom"
)

func published() []geom.Rectangle {
	return []geom.Rectangle{
		{ID: 1, X: 0, Y: 0, W: 10, H: 10, Overlaps: true},
		{ID: 20, X: 5.5, Y: 5, W: 10, H: 10, Overlaps: true},
		{ID: 3, X: 100, Y: 100, W: 10, H: 10},
	}
}

// TestWriteResultTable verifies one aligned row per rectangle
func TestWriteResultTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, config.OutputTable, published()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"ID", "X", "Y", "W", "H", "OVERLAPS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"20", "5.5", "5", "10", "10", "true"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"3", "100", "100", "10", "10", "false"}, strings.Fields(lines[3]))

	// Columns line up
	assert.Equal(t, strings.Index(lines[0], "OVERLAPS"), strings.Index(lines[3], "false"))
}

// TestWriteResultJSON verifies the exposed field names
func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, config.OutputJSON, published()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, map[string]any{
		"id": 20.0, "rectX": 5.5, "rectY": 5.0, "rectW": 10.0, "rectH": 10.0, "overlaps": true,
	}, decoded[1])

	buf.Reset()
	require.NoError(t, writeResult(&buf, config.OutputJSON, nil))
	assert.Equal(t, "[]\n", buf.String())
}
