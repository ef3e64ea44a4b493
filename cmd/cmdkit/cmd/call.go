package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/cmdkit/internal/rpc"
	ckgrpc "github.com/msto63/cmdkit/pkg/core/grpc"
	"github.com/msto63/cmdkit/pkg/core/logging"
)

var (
	callAddr    string
	callName    string
	callWait    time.Duration
	callTimeout time.Duration
	callList    bool
)

var callCmd = &cobra.Command{
	Use:   "call [line...]",
	Short: "Runs command lines on a running gRPC host",
	Long: `Sends each argument, or every line of stdin, to the gRPC host of a
running "cmdkit serve". Every line runs as a short-lived caller; responses
of stepped or asynchronous invocations are collected for up to --wait.
The exit status is non-zero if any response failed.

Examples:
  cmdkit call --addr 127.0.0.1:9190 "give @me diamond 3" "inventory"
  cmdkit call --list`,
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().StringVar(&callAddr, "addr", "", "host address (default: the [rpc] section of the config)")
	callCmd.Flags().StringVar(&callName, "name", "script", "name of the calling actor")
	callCmd.Flags().DurationVar(&callWait, "wait", 10*time.Second, "how long to wait for deferred invocations")
	callCmd.Flags().DurationVar(&callTimeout, "timeout", 5*time.Second, "per-call deadline on top of --wait")
	callCmd.Flags().BoolVar(&callList, "list", false, "list the commands available to programmatic callers")
}

func runCall(cmd *cobra.Command, args []string) error {
	addr := callAddr
	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			printError("config", err)
			return err
		}
		addr = cfg.RPCAddress()
	}

	cc := ckgrpc.DefaultClientConfig(addr)
	cc.Logger = logging.Wrap("cmdkit-call", logging.NewLogger(logging.LoggerConfig{
		ServiceName: "cmdkit-call",
		Level:       quietLevel("debug"),
		Format:      "text",
		Output:      cmd.ErrOrStderr(),
	}))
	conn, err := ckgrpc.Dial(cc)
	if err != nil {
		printError("dial", err)
		return err
	}
	defer conn.Close()
	client := rpc.NewClient(conn)
	out := cmd.OutOrStdout()

	if callList {
		ctx, cancel := context.WithTimeout(cmd.Context(), callTimeout)
		defer cancel()
		reply, err := client.Commands(ctx)
		if err != nil {
			printError("call", err)
			return err
		}
		for _, c := range reply.Commands {
			fmt.Fprintf(out, "%-12s %s\n", c.Name, c.Description)
			for _, u := range c.Usage {
				fmt.Fprintf(out, "  %s\n", u)
			}
		}
		return nil
	}

	lines := args
	if len(lines) == 0 {
		if lines, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	failures := 0
	for _, line := range lines {
		ctx, cancel := context.WithTimeout(cmd.Context(), callWait+callTimeout)
		reply, err := client.Dispatch(ctx, &rpc.DispatchRequest{
			Caller:     callName,
			Line:       line,
			WaitMillis: callWait.Milliseconds(),
		})
		cancel()
		if err != nil {
			printError("call", err)
			return err
		}
		for _, r := range reply.Responses {
			if !r.Success {
				failures++
			}
			if text := strings.TrimRight(r.Text, "\n"); text != "" {
				fmt.Fprintln(out, text)
			}
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d lines failed", failures, len(lines))
	}
	return nil
}
