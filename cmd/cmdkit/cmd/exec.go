package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/cmdkit/foundation/engine"
	"github.com/msto63/cmdkit/foundation/engine/command"
)

var (
	execChannel string
	execWait    time.Duration
	execName    string
)

var execCmd = &cobra.Command{
	Use:   "exec [line...]",
	Short: "Runs command lines and exits",
	Long: `Runs each argument as one command line, or every line of stdin when
no arguments are given. Deferred invocations are ticked until they finish
or --wait elapses. The exit status is non-zero if any line failed.

Examples:
  cmdkit exec "give @me diamond 3" "inventory"
  echo "countdown 2" | cmdkit exec`,
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVar(&execChannel, "channel", "programmatic", "input channel: console, interactive or programmatic")
	execCmd.Flags().DurationVar(&execWait, "wait", 10*time.Second, "how long to wait for deferred invocations")
	execCmd.Flags().StringVar(&execName, "name", "script", "name of the calling actor")
}

// printer writes delivered responses to a writer
type printer struct {
	name     string
	out      io.Writer
	failures int
}

func (p *printer) ID() string   { return "exec" }
func (p *printer) Name() string { return p.name }
func (p *printer) Deliver(resp *command.Response, text string) {
	if !resp.Success {
		p.failures++
	}
	if text != "" {
		fmt.Fprintln(p.out, text)
	}
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config", err)
		return err
	}
	channel, err := command.ParseChannel(execChannel)
	if err != nil {
		return err
	}
	cfg.Logging.Level = quietLevel(cfg.Logging.Level)

	// stdout holds only responses
	a, err := newApp(cfg, appOptions{LogOutput: cmd.ErrOrStderr()})
	if err != nil {
		printError("startup", err)
		return err
	}
	defer a.close()

	p := &printer{name: execName, out: cmd.OutOrStdout()}
	a.spawn(p.ID(), p.Name())

	lines := args
	if len(lines) == 0 {
		lines, err = readLines(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}
	for _, line := range lines {
		a.engine.Dispatch(p, channel, line)
		settle(a.engine, p, cfg.Engine.TickInterval.Duration, execWait)
	}

	if p.failures > 0 {
		return fmt.Errorf("%d of %d lines failed", p.failures, len(lines))
	}
	return nil
}

// settle ticks the engine until none of the caller's runners is stepping
// or awaiting a future, or wait elapses. Runners waiting for input are
// left for the next line.
func settle(e *engine.Engine, caller command.Caller, interval, wait time.Duration) {
	deadline := time.Now().Add(wait)
	last := time.Now()
	for e.Runners().Busy(caller) && time.Now().Before(deadline) {
		time.Sleep(interval)
		now := time.Now()
		e.Tick(now.Sub(last))
		last = now
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func quietLevel(level string) string {
	if verbose {
		return level
	}
	return "warn"
}
