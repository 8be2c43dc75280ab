// Package cli implements the papergraph command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papergraph/papergraph"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "papergraph",
	Short: "Papergraph - consolidate research-library extraction records into knowledge graphs",
	Long: `Papergraph ingests extraction records produced by an upstream
research-library pipeline (papers, claims, observations, methods, and the
links between them) and consolidates them into a deduplicated knowledge
graph: duplicate claims and observations collapse into canonical nodes,
links are remapped and cleaned, and derived views (evidence landscapes,
contradiction sets, variants) become queryable from the command line.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("papergraph v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.papergraph/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "path to the snapshot database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.papergraph")
			viper.SetConfigType("yaml")
			viper.SetConfigName("config")
		}
	}

	// Read in environment variables that match PAPERGRAPH_*
	viper.SetEnvPrefix("PAPERGRAPH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}

	// Engine logging is noise for interactive use unless asked for.
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newEngine builds an engine from the resolved configuration. Callers own
// the returned engine and must Close it.
func newEngine() (papergraph.Engine, error) {
	cfg := papergraph.DefaultConfig()
	if v := viper.GetString("db_path"); v != "" {
		cfg.DBPath = v
	}
	if v := viper.GetString("db_name"); v != "" {
		cfg.DBName = v
	}
	if v := viper.GetString("storage_dir"); v != "" {
		cfg.StorageDir = v
	}
	if v := viper.GetInt("cache_ttl_seconds"); v > 0 {
		cfg.CacheTTLSeconds = v
	}
	if v := viper.GetInt("search_limit"); v > 0 {
		cfg.SearchLimit = v
	}
	return papergraph.New(cfg)
}
