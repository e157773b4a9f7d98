package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssism/dhammi/internal/config"
	"github.com/ssism/dhammi/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "dhammi",
	Short: "Advisory chat assistant grounded in a verified fact ledger",
	Long: "dhammi answers questions with a compassionate, truth-first advisor persona,\n" +
		"grounding each reply in the most relevant facts from the CTTM fact ledger.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and flushes the logger.
func Execute() error {
	defer func() { logger.Sync() }()
	return rootCmd.Execute()
}

// setup loads configuration and builds the logger before any subcommand.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		c.Log.Level = "debug"
	}

	l, err := logging.New(c.Log.Level, c.Log.JSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using info level\n", err)
		if l, err = logging.New("info", c.Log.JSON); err != nil {
			return err
		}
	}
	cfg, logger = c, l
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./dhammi.toml or ~/.dhammi/dhammi.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(newsCmd)
}
