package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFlags(t *testing.T) {
	run := runCmd()
	assert.NotNil(t, run.Flags().Lookup("json"))
	assert.NotNil(t, run.Flags().Lookup("max-results"))

	assert.NotNil(t, icdCmd().Flags().Lookup("max"))

	treatments := treatmentsCmd()
	assert.NotNil(t, treatments.Flags().Lookup("code"))
	assert.NotNil(t, treatments.Flags().Lookup("max"))
}

func TestICDCommandRequiresQuery(t *testing.T) {
	cmd := icdCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"count": 2}))
	assert.Equal(t, "{\n  \"count\": 2\n}\n", buf.String())
}
