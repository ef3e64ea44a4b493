package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/cmdkit/pkg/core/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cmdkit",
	Short: "cmdkit - command parsing and execution engine",
	Long: `cmdkit hosts a command engine: lines are tokenized, matched against
registered commands and their overloads, resolved into typed arguments and
executed as regular, continuable, stepped or asynchronous invocations.

Hosts:
  serve    - websocket server, one caller per connection
  console  - interactive terminal
  exec     - run lines from arguments or stdin and exit
  call     - run lines on the gRPC host of a running serve`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $CMDKIT_CONFIG or ./configs/cmdkit.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration selected by the flags
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
