package cmd

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/msto63/cmdkit/internal/format"
	"github.com/msto63/cmdkit/internal/tui/console"
)

var (
	consoleName    string
	consoleLogFile string
)

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"repl"},
	Short:   "Starts the interactive console",
	Long: `Starts the interactive console. The console user is an actor in the
world, so @me and ray based arguments work.

Keys:
  Enter       run the line or answer a prompt
  Up/Down     history
  PgUp/PgDn   scroll
  Esc/Ctrl+C  quit (exit and quit work too)`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVar(&consoleName, "name", "operator", "name of the console actor")
	consoleCmd.Flags().StringVar(&consoleLogFile, "log-file", "", "log file (default: <data_dir>/console.log)")
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config", err)
		return err
	}
	logFile := consoleLogFile
	if logFile == "" {
		logFile = filepath.Join(cfg.General.DataDir, "console.log")
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return err
	}

	f := format.NewStdout()
	a, err := newApp(cfg, appOptions{LogFile: logFile, Formatter: f})
	if err != nil {
		printError("startup", err)
		return err
	}
	defer a.close()

	m := console.New(console.Config{
		Engine:       a.engine,
		Formatter:    f,
		CallerID:     "console",
		CallerName:   consoleName,
		TickInterval: cfg.Engine.TickInterval.Duration,
		Title:        "cmdkit console - " + cfg.General.Name,
	})
	a.relay.add(m)
	if e := a.spawn("console", consoleName); e != nil {
		e.Give("torch", 1)
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
