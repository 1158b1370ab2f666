package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/painpoint-cli/internal/model"
)

func TestWriteOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	run := model.Run{ID: "r1", Topic: "checkout", Status: model.RunStatusComplete}
	require.NoError(t, writeOutput(&buf, "json", run))

	assert.Contains(t, buf.String(), "\n  \"id\": \"r1\"")
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "complete", got["status"])
}

func TestWriteOutput_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	pp := model.PainPoint{Name: "Slow sync", Frequency: model.FrequencyHigh, Relevance: 0.5}
	require.NoError(t, writeOutput(&buf, "yaml", pp))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Slow sync", got["name"])
	assert.Equal(t, "high", got["frequency"])
	assert.Equal(t, 0.5, got["relevance"])
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	err := writeOutput(&bytes.Buffer{}, "xml", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "xml"`)
}
