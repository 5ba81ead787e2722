package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"run", "report", "rules", "policy", "seed", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRunCommand_Flags(t *testing.T) {
	require.NotNil(t, runCmd.Flags().Lookup("filter"))
	flag := runCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "json", flag.DefValue)

	flag = reportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "markdown", flag.DefValue)
}

func TestRunCommand_SyntheticData(t *testing.T) {
	out, err := execute(t, "run", "bus_stops", "--filter", "region=London", "--format", "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "In London,"), out)
	assert.Contains(t, out, "Sources:")

	out, err = execute(t, "run", "ev_chargers", "--filter", "region=all", "--format", "json")
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Contains(t, body, "summary")
	assert.Contains(t, body, "decisions")
}

func TestRunCommand_UnknownSection(t *testing.T) {
	_, err := execute(t, "run", "nope", "--format", "json")
	assert.Error(t, err)
}

func TestRulesCommand(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "RULE")
	assert.Contains(t, out, "investment_case")
}

func TestPolicyCommand(t *testing.T) {
	out, err := execute(t, "policy")
	require.NoError(t, err)
	assert.Contains(t, out, "version: default-2024")
}

func TestSeedThenReport(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "areas.csv")

	out, err := execute(t, "seed", "-o", dataPath, "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 240 rows")

	data, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "area_code,region,area_type"))

	reportPath := filepath.Join(dir, "report.md")
	_, err = execute(t, "report", "--title", "Transport", "--format", "markdown", "-o", reportPath)
	require.NoError(t, err)
	md, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Transport"))
}
