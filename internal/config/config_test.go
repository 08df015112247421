package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes validation, rooted in a real
// temporary directory so the dir tag holds.
func validConfig(t *testing.T) *Config {
	t.Helper()

	c := Default()
	c.RepoDir = t.TempDir()
	c.HostOwner = "aviadlevy"
	c.HostRepo = "hdate"
	c.ProjectName = "hdate"
	c.RegistryEndpoint = "https://upload.example.com/legacy/"
	c.RegistryUsername = "__token__"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "complete config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "unknown bump kind",
			mutate:  func(c *Config) { c.Bump = "hotfix" },
			wantErr: true,
		},
		{
			name:    "missing host owner",
			mutate:  func(c *Config) { c.HostOwner = "" },
			wantErr: true,
		},
		{
			name:    "registry endpoint is not a url",
			mutate:  func(c *Config) { c.RegistryEndpoint = "not a url" },
			wantErr: true,
		},
		{
			name:    "empty build command",
			mutate:  func(c *Config) { c.BuildCommand = nil },
			wantErr: true,
		},
		{
			name:    "repo dir does not exist",
			mutate:  func(c *Config) { c.RepoDir = "/does/not/exist" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig(t)
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"RELEASEKIT_BUMP":          "minor",
		"RELEASEKIT_HOST_OWNER":    "aviadlevy",
		"RELEASEKIT_HOST_REPO":     "hdate",
		"RELEASEKIT_BUILD_COMMAND": "python -m build",
		"RELEASEKIT_DIST_DIR":      "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	c := Default()
	c.ApplyEnv(lookup)

	assert.Equal(t, "minor", c.Bump)
	assert.Equal(t, "aviadlevy", c.HostOwner)
	assert.Equal(t, "hdate", c.HostRepo)
	assert.Equal(t, []string{"python", "-m", "build"}, c.BuildCommand)

	// Empty and unset variables keep the defaults.
	assert.Equal(t, "dist", c.DistDir)
	assert.Equal(t, "project.toml", c.MetadataPath)

	// The overlaid config validates once the remaining required fields
	// are supplied.
	c.RepoDir = t.TempDir()
	c.ProjectName = "hdate"
	c.RegistryEndpoint = "https://upload.example.com/legacy/"
	c.RegistryUsername = "__token__"
	require.NoError(t, c.Validate())
}
