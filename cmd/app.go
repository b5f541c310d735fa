package cmd

import (
	"os/user"
	"strings"

	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/spf13/cobra"

	"github.com/jparise/gh-search/internal/config"
	"github.com/jparise/gh-search/internal/logger"
	"github.com/jparise/gh-search/internal/render"
	"github.com/jparise/gh-search/internal/storage/sqlite"
)

// loadConfig reads the configuration file and applies any flags given on the
// command line over it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("no-cache") {
		cfg.GitHub.DisableCache = noCache
	}
	if flags.Changed("cache-dir") {
		cfg.GitHub.CacheDir = cacheDir
	}
	if flags.Changed("cache-ttl") {
		cfg.GitHub.CacheTTL = config.Duration(cacheTTL)
	}
	if flags.Changed("jobs") {
		cfg.Search.Jobs = jobs
	}
	if flags.Changed("file-dates") {
		cfg.Search.FileDates = fileDates
	}
	if flags.Changed("verbose") {
		cfg.Log.Verbose = verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetVerbose(cfg.Log.Verbose)

	return cfg, nil
}

// enabled resolves a colorMode against the terminal's capabilities.
func (c colorMode) enabled(auto func() bool) bool {
	switch c {
	case colorAlways:
		return true
	case colorNever:
		return false
	default:
		return auto()
	}
}

func newOutput(cmd *cobra.Command) *render.Output {
	terminal := term.FromEnv()
	colorize := color.enabled(terminal.IsColorEnabled)
	hyperlinks := hyperlink.enabled(terminal.IsTerminalOutput)
	return render.NewOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), colorize, hyperlinks)
}

// openStore opens the local database named by the configuration.
func openStore(cmd *cobra.Command) (*sqlite.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(cfg.Storage.DataDir)
}

// localUserID identifies the person at the terminal in the local store.
func localUserID() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return "local:" + strings.ToLower(u.Username)
	}
	return "local"
}
