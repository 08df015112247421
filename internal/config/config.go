// Package config holds the validated configuration of a release run.
// Values are layered: built-in defaults, then environment variables, then
// command-line flags, with later layers winning.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EnvPrefix is the prefix of all environment variables read by the overlay.
const EnvPrefix = "RELEASEKIT_"

// ErrInvalidConfig is returned when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration of one release run. Credentials are not
// part of it; they are resolved separately through the secrets resolver.
type Config struct {
	// RepoDir is the repository root the run operates in.
	RepoDir string `validate:"required,dir"`

	// Bump selects the version component to increment.
	Bump string `validate:"required,oneof=major minor patch"`

	// MetadataPath is the project metadata file, relative to RepoDir.
	MetadataPath string `validate:"required"`

	// ChangelogPath is the changelog file, relative to RepoDir.
	ChangelogPath string `validate:"required"`

	// HostOwner and HostRepo identify the repository on the release host.
	HostOwner string `validate:"required"`
	HostRepo  string `validate:"required"`

	// ProjectName is the package name used in artifact filenames and
	// registry uploads.
	ProjectName string `validate:"required"`

	// BuildCommand produces the dist outputs.
	BuildCommand []string `validate:"required,min=1"`

	// DistDir is the build output directory, relative to RepoDir.
	DistDir string `validate:"required"`

	// RegistryEndpoint is the registry's upload URL.
	RegistryEndpoint string `validate:"required,url"`

	// RegistryUsername is the registry basic-auth username.
	RegistryUsername string `validate:"required"`

	// DryRun previews the release without mutating anything.
	DryRun bool

	// Verbose enables debug logging.
	Verbose bool
}

// Default returns a Config with the built-in defaults filled in. Fields with
// no sensible default stay empty and must come from the environment or flags.
func Default() *Config {
	return &Config{
		RepoDir:       ".",
		Bump:          "patch",
		MetadataPath:  "project.toml",
		ChangelogPath: "CHANGELOG.md",
		BuildCommand:  []string{"make", "dist"},
		DistDir:       "dist",
	}
}

// ApplyEnv overlays values from the environment. lookup follows the
// os.LookupEnv contract; variables that are unset or empty leave the current
// value in place.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	set("REPO_DIR", &c.RepoDir)
	set("BUMP", &c.Bump)
	set("METADATA_PATH", &c.MetadataPath)
	set("CHANGELOG_PATH", &c.ChangelogPath)
	set("HOST_OWNER", &c.HostOwner)
	set("HOST_REPO", &c.HostRepo)
	set("PROJECT_NAME", &c.ProjectName)
	set("DIST_DIR", &c.DistDir)
	set("REGISTRY_ENDPOINT", &c.RegistryEndpoint)
	set("REGISTRY_USERNAME", &c.RegistryUsername)

	if v, ok := lookup(EnvPrefix + "BUILD_COMMAND"); ok && v != "" {
		c.BuildCommand = strings.Fields(v)
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
