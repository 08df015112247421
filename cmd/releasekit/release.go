package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/aviadlevy/releasekit/internal/artifact"
	"github.com/aviadlevy/releasekit/internal/changelog"
	"github.com/aviadlevy/releasekit/internal/config"
	"github.com/aviadlevy/releasekit/internal/gitrepo"
	"github.com/aviadlevy/releasekit/internal/notes"
	"github.com/aviadlevy/releasekit/internal/pipeline"
	"github.com/aviadlevy/releasekit/internal/project"
	"github.com/aviadlevy/releasekit/internal/registry"
	"github.com/aviadlevy/releasekit/internal/releasehost"
	"github.com/aviadlevy/releasekit/internal/runlock"
	"github.com/aviadlevy/releasekit/internal/secrets"
	"github.com/aviadlevy/releasekit/internal/version"
)

var releaseCommand = &cobra.Command{
	Use:   "release",
	Short: "Run the release pipeline end-to-end",
	Long: `Runs every release step in order and halts at the first failure. There is
no rollback: the run log reports the last completed step so a partial release
can be reconciled by hand.

Configuration comes from flags, RELEASEKIT_* environment variables, and an
optional .env file, in that order of precedence. Credentials are read from
RELEASEKIT_GIT_TOKEN, RELEASEKIT_HOST_TOKEN, and RELEASEKIT_REGISTRY_PASSWORD.`,
	RunE: runReleaseCmd,
}

var (
	releaseBump         string
	releaseRepoDir      string
	releaseHostOwner    string
	releaseHostRepo     string
	releaseProjectName  string
	releaseBuildCommand string
	releaseRegistryURL  string
	releaseRegistryUser string
	releaseDryRun       bool
	releaseVerbose      bool
)

func init() {
	flags := releaseCommand.Flags()
	flags.StringVar(&releaseBump, "bump", "patch", "Version component to increment (major, minor, patch)")
	flags.StringVar(&releaseRepoDir, "repo", ".", "Repository root directory")
	flags.StringVar(&releaseHostOwner, "host-owner", "", "Repository owner on the release host")
	flags.StringVar(&releaseHostRepo, "host-repo", "", "Repository name on the release host")
	flags.StringVar(&releaseProjectName, "project-name", "", "Package name used in artifact filenames")
	flags.StringVar(&releaseBuildCommand, "build-command", "", "Command that produces the dist outputs")
	flags.StringVar(&releaseRegistryURL, "registry-endpoint", "", "Package registry upload URL")
	flags.StringVar(&releaseRegistryUser, "registry-username", "", "Package registry basic-auth username")
	flags.BoolVar(&releaseDryRun, "dry-run", false, "Resolve the version and preview the notes without mutating anything")
	flags.BoolVarP(&releaseVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(releaseCommand)
}

func runReleaseCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Verbose)
	slog.SetDefault(log)

	lock, err := runlock.Acquire(cfg.RepoDir)
	if err != nil {
		return err
	}
	defer lock.Release() //nolint:errcheck

	release, err := buildRelease(ctx, cfg, log)
	if err != nil {
		return err
	}

	report, err := release.Run(ctx)
	if err != nil {
		return fmt.Errorf("release failed after step %q: %w", report.LastCompletedName(), err)
	}

	log.Info("release complete", "steps", len(report.Results))
	return nil
}

// buildConfig layers defaults, environment, and explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	cfg.ApplyEnv(os.LookupEnv)

	flags := cmd.Flags()
	overlay := func(name, value string, dst *string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	overlay("bump", releaseBump, &cfg.Bump)
	overlay("repo", releaseRepoDir, &cfg.RepoDir)
	overlay("host-owner", releaseHostOwner, &cfg.HostOwner)
	overlay("host-repo", releaseHostRepo, &cfg.HostRepo)
	overlay("project-name", releaseProjectName, &cfg.ProjectName)
	overlay("registry-endpoint", releaseRegistryURL, &cfg.RegistryEndpoint)
	overlay("registry-username", releaseRegistryUser, &cfg.RegistryUsername)
	if flags.Changed("build-command") {
		cfg.BuildCommand = strings.Fields(releaseBuildCommand)
	}
	cfg.DryRun = releaseDryRun
	cfg.Verbose = releaseVerbose

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildRelease resolves credentials and wires every pipeline component.
func buildRelease(ctx context.Context, cfg *config.Config, log *slog.Logger) (*pipeline.Release, error) {
	resolver := secrets.NewEnvResolver(os.LookupEnv)

	gitToken, err := resolver.Resolve(ctx, secrets.RefGitPush)
	if err != nil {
		return nil, err
	}
	hostToken, err := resolver.Resolve(ctx, secrets.RefReleaseHost)
	if err != nil {
		return nil, err
	}
	registryPassword, err := resolver.Resolve(ctx, secrets.RefRegistry)
	if err != nil {
		return nil, err
	}

	bump, err := version.ParseBumpKind(cfg.Bump)
	if err != nil {
		return nil, err
	}

	fs := osfs.New(cfg.RepoDir)
	repo, err := gitrepo.Open(ctx, &gitrepo.Options{
		FS:   fs,
		Auth: gitrepo.TokenAuth(gitToken),
	})
	if err != nil {
		return nil, err
	}

	meta := project.NewMetadata(fs, cfg.MetadataPath)
	host := releasehost.NewGitHubHost(ctx, cfg.HostOwner, cfg.HostRepo, hostToken,
		releasehost.WithLogger(log))

	builder, err := artifact.NewBuilder(&artifact.Options{
		Name:         cfg.ProjectName,
		RepoDir:      cfg.RepoDir,
		Metadata:     meta,
		BuildCommand: cfg.BuildCommand,
		DistDir:      cfg.DistDir,
		Log:          log,
	})
	if err != nil {
		return nil, err
	}

	publisher, err := registry.NewHTTPPublisher(&registry.Options{
		Endpoint: cfg.RegistryEndpoint,
		Name:     cfg.ProjectName,
		Username: cfg.RegistryUsername,
		Password: registryPassword,
		Log:      log,
	})
	if err != nil {
		return nil, err
	}

	return pipeline.NewRelease(&pipeline.Options{
		Bump:      bump,
		Metadata:  meta,
		Changelog: changelog.NewStore(fs, cfg.ChangelogPath),
		Repo:      repo,
		Host:      host,
		Notes:     notes.NewFetcher(host, log),
		Builder:   builder,
		Registry:  publisher,
		DryRun:    cfg.DryRun,
		Log:       log,
	})
}
