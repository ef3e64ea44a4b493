package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/foundation/utils/stringx"
)

var (
	commandsChannel string
	commandsUsage   bool
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Lists the registered commands",
	Long: `Lists the commands visible on a channel after manifest overrides.
With --usage every overload is printed with its parameters.`,
	RunE: runCommands,
}

func init() {
	rootCmd.AddCommand(commandsCmd)
	commandsCmd.Flags().StringVar(&commandsChannel, "channel", "console", "channel to list")
	commandsCmd.Flags().BoolVarP(&commandsUsage, "usage", "u", false, "print usage lines")
}

func runCommands(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config", err)
		return err
	}
	channel, err := command.ParseChannel(commandsChannel)
	if err != nil {
		return err
	}
	cfg.Logging.Level = quietLevel(cfg.Logging.Level)
	cfg.Audit.Enabled = false

	a, err := newApp(cfg, appOptions{LogOutput: cmd.ErrOrStderr()})
	if err != nil {
		printError("startup", err)
		return err
	}
	defer a.close()

	descriptors := a.engine.Commands(channel)
	width := 0
	for _, d := range descriptors {
		width = max(width, len(d.Name))
	}
	out := cmd.OutOrStdout()
	for _, d := range descriptors {
		line := stringx.PadRight(d.Name, width+2, ' ') + d.Description
		var notes []string
		if len(d.Aliases) > 0 {
			notes = append(notes, "aliases: "+strings.Join(d.Aliases, ", "))
		}
		if d.Permission != "" {
			notes = append(notes, "permission: "+d.Permission)
		}
		if len(notes) > 0 {
			line += " (" + strings.Join(notes, "; ") + ")"
		}
		fmt.Fprintln(out, line)
		if commandsUsage {
			for _, u := range d.Usage() {
				fmt.Fprintln(out, "    "+u)
			}
		}
	}
	return nil
}
