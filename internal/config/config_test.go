package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subrecon.yaml")
	content := `
concurrency: 16
rate_limit: 50
user_agent: custom/2.0
resolver: 1.1.1.1:53
query_timeout_ms: 1000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := Load(path)
	require.NoError(t, err)

	s := Defaults()
	s.Apply(f)

	assert.Equal(t, 16, s.Concurrency)
	assert.Equal(t, 50.0, s.RateLimit)
	assert.Equal(t, "custom/2.0", s.UserAgent)
	assert.Equal(t, "1.1.1.1:53", s.Resolver)
	assert.Equal(t, time.Second, s.QueryTimeout)
	// Unset fields keep their defaults.
	assert.Equal(t, 4*time.Second, s.ProbeTimeout)
	assert.Equal(t, 10*time.Second, s.CTTimeout)
}

func TestApplyNil(t *testing.T) {
	s := Defaults()
	s.Apply(nil)
	assert.Equal(t, Defaults(), s)
}

func TestLoadBadFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("concurrency: [nope"), 0644))
	_, err = Load(path)
	require.Error(t, err)
}
