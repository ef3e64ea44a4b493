package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cklog "github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
	"github.com/msto63/cmdkit/internal/host"
	"github.com/msto63/cmdkit/internal/rpc"
	"github.com/msto63/cmdkit/internal/server"
	ckgrpc "github.com/msto63/cmdkit/pkg/core/grpc"
	"github.com/msto63/cmdkit/pkg/core/logging"
)

var (
	serveHost string
	servePort int
	serveRPC  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the websocket host",
	Long: `Starts the websocket host.

Clients connect to ws://<host>:<port><path>?name=<caller>[&mode=programmatic]
and send {"type":"line","line":"..."} messages. Each connection is placed in
the world as an actor named after the caller.

With [rpc] enabled (or --rpc-port) the gRPC service cmdkit.v1.Commands is
served as well; "cmdkit call" is its client.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides the config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides the config)")
	serveCmd.Flags().IntVar(&serveRPC, "rpc-port", 0, "enable the gRPC host on this port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config", err)
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveRPC != 0 {
		cfg.RPC.Port = serveRPC
		cfg.RPC.Enabled = true
	}

	a, err := newApp(cfg, appOptions{})
	if err != nil {
		printError("startup", err)
		return err
	}
	defer a.close()

	channel, err := command.ParseChannel(cfg.Server.Channel)
	if err != nil {
		return err
	}

	h := host.New(host.Options{
		Engine:       a.engine,
		TickInterval: cfg.Engine.TickInterval.Duration,
		Logger:       a.logger,
	})
	srv := server.New(server.Options{
		Host:        h,
		Channel:     channel,
		ReadTimeout: cfg.Server.ReadTimeout.Duration,
		Logger:      logging.Wrap("cmdkit-server", a.logger),
		OnConnect: func(s *server.Session) {
			a.spawn(s.ID(), s.Name())
		},
		OnDisconnect: func(s *server.Session) {
			a.world.Remove(s.ID())
		},
	})
	a.relay.add(srv)

	var rpcServer *ckgrpc.Server
	if cfg.RPC.Enabled {
		rpcLogger := logging.Wrap("cmdkit-rpc", a.logger)
		service := rpc.New(rpc.Options{
			Host:   h,
			Logger: rpcLogger,
			OnConnect: func(c *rpc.Caller) {
				a.spawn(c.ID(), c.Name())
			},
			OnDisconnect: func(c *rpc.Caller) {
				a.world.Remove(c.ID())
			},
		})
		a.relay.add(service)
		rpcServer = ckgrpc.NewServer(ckgrpc.ServerConfigFrom(cfg.RPC), rpcLogger)
		service.Register(rpcServer.GRPCServer())
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, srv)
	httpServer := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go h.Run(ctx)
	errCh := make(chan error, 1)
	if rpcServer != nil {
		if err := rpcServer.StartAsync(); err != nil {
			printError("rpc", err)
			stop()
			<-h.Done()
			return err
		}
		a.logger.Info("gRPC host listening", cklog.Fields{"address": rpcServer.Address()})
	}
	go func() {
		a.logger.Info("Websocket host listening", cklog.Fields{
			"address": httpServer.Addr, "path": cfg.Server.Path, "channel": channel.String(),
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		printError("server", err)
		stop()
		<-h.Done()
		return err
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdown); err != nil {
		a.logger.Warn("HTTP shutdown incomplete", cklog.Fields{"error": err.Error()})
	}
	if rpcServer != nil {
		rpcServer.StopWithTimeout(shutdown)
	}
	<-h.Done()
	a.logger.Info("Websocket host stopped")
	return nil
}
