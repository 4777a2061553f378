package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3080", cfg.GNS3URL)
	assert.Equal(t, "untitled", cfg.Project)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 200*time.Millisecond, cfg.RetryBackoff())
	assert.Equal(t, 1, cfg.DeployConcurrency)
	assert.Equal(t, "", cfg.GraphDBURI())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeEnv(t, "GNS3_URL=http://gns3.lab:3080\nPROJECT=campus\nDEPLOY_CONCURRENCY=4\nRATE_PER_SECOND=2.5\nGRAPHDB=graph.lab\n")
	t.Setenv("PROJECT", "backbone")
	t.Setenv("MAX_RETRIES", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://gns3.lab:3080", cfg.GNS3URL)
	assert.Equal(t, "backbone", cfg.Project)
	assert.Equal(t, 4, cfg.DeployConcurrency)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.InDelta(t, 2.5, cfg.RatePerSecond, 1e-9)
	assert.Equal(t, "neo4j://graph.lab", cfg.GraphDBURI())
	cfg.PrintVariables()
}

func TestGraphDBURIKeepsScheme(t *testing.T) {
	cfg := &Config{GraphDB: "bolt://graph.lab:7687"}
	assert.Equal(t, "bolt://graph.lab:7687", cfg.GraphDBURI())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero burst":       "RATE_BURST=0\n",
		"zero timeout":     "REQUEST_TIMEOUT_MS=0\n",
		"zero concurrency": "DEPLOY_CONCURRENCY=0\n",
		"bad url":          "GNS3_URL=not a url\n",
		"no project":       "PROJECT=\n",
		"too many retries": "MAX_RETRIES=50\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeEnv(t, content))
			assert.Error(t, err)
		})
	}
}
