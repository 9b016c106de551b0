package commands

import (
	"context"
	"fmt"
	"time"

	"blender-scraper/internal/components/configutil"
	"blender-scraper/internal/components/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath  string
	timeout     time.Duration
	concurrency int
	channels    []string
	layout      string
	pretty      bool
	format      string
	dbPath      string
	dumpHttp    string
	debug       bool
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "blender-scraper.json5", "The config file, optional. A <name>.local.<ext> file next to it overrides its values.")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "The timeout of every request.")
	flags.IntVar(&concurrency, "concurrency", 4, "The number of channels scraped at once.")
	flags.StringSliceVar(&channels, "channels", nil, "The channels to scrape (default stable,daily,experimental,patch).")
	flags.StringVar(&layout, "layout", "current", "The build archive markup: current or paired.")
	flags.BoolVar(&pretty, "pretty", false, "Indent the json output.")
	flags.StringVar(&format, "format", "json", "The output format: json or table.")
	flags.StringVar(&dbPath, "db", "", "A sqlite file or libsql:// url to export the releases to.")
	flags.StringVar(&dumpHttp, "dump-http", "", "A directory to write every request and response to, in a new http-* subdirectory per run.")
	flags.BoolVar(&debug, "debug", false, "Log debug messages.")
}

var rootCmd = &cobra.Command{
	Use:   "blender-scraper [flags]",
	Short: "blender-scraper lists the builds published on the blender download pages.",
	Long: "blender-scraper fetches the stable download page and the daily, experimental " +
		"and patch build archives and prints every downloadable build as one json object " +
		"keyed by channel. It exits with status 1 only when every channel failed.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(debug)

		cfg, err := configutil.ReadConfigOr(configPath, DefaultConfig())
		if err != nil {
			return fmt.Errorf("read config %s: %w", configPath, err)
		}
		applyFlags(cmd.Flags(), &cfg)

		return Run(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

// applyFlags overrides config values with the flags that were set explicitly.
func applyFlags(flags *pflag.FlagSet, cfg *Config) {
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = timeout.Seconds()
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if flags.Changed("channels") {
		cfg.Channels = channels
	}
	if flags.Changed("layout") {
		cfg.Layout = layout
	}
	if flags.Changed("pretty") {
		cfg.Pretty = pretty
	}
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("db") {
		cfg.DB = dbPath
	}
	if flags.Changed("dump-http") {
		cfg.DumpHttp = dumpHttp
	}
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
