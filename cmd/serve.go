package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/ai"
	"github.com/theapemachine/dice-agent/pkg/provider"
	"github.com/theapemachine/dice-agent/pkg/service"
	"github.com/theapemachine/dice-agent/pkg/stores"
	"github.com/theapemachine/dice-agent/pkg/stores/s3"
	"github.com/theapemachine/dice-agent/pkg/tools"
)

const shutdownTimeout = 10 * time.Second

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the agent or its MCP tool server",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	agentCmd = &cobra.Command{
		Use:   "agent",
		Short: "Serve the A2A agent over HTTP",
		RunE:  runAgent,
	}

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve the agent's tools over MCP on stdio",
		RunE:  runMCP,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.AddCommand(agentCmd)
	serveCmd.AddCommand(mcpCmd)

	serveCmd.PersistentFlags().IntP("port", "p", 3000, "Port to serve on")
	serveCmd.PersistentFlags().StringP("host", "H", "0.0.0.0", "Host address to bind to")

	_ = viper.BindPFlag("server.port", serveCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.PersistentFlags().Lookup("host"))
}

func runAgent(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v := viper.GetViper()
	card := a2a.NewAgentCardFromConfig(v)

	store, err := newTaskStore(ctx, v)

	if err != nil {
		return err
	}

	prvdr, err := provider.FromConfig(ctx, v)

	if err != nil {
		return err
	}

	registry, closeTools, err := newToolRegistry(ctx, v)

	if err != nil {
		return err
	}

	defer closeTools()

	manager, err := ai.NewTaskManager(
		card,
		ai.WithTaskStore(store),
		ai.WithProvider(prvdr),
		ai.WithTools(registry),
		ai.WithTimeout(v.GetDuration("agent.timeout")),
		ai.WithMaxSteps(v.GetInt("agent.maxSteps")),
		ai.WithSystem(v.GetString("agent.system")),
	)

	if err != nil {
		return err
	}

	dispatcher, err := service.NewDispatcher(manager)

	if err != nil {
		return err
	}

	var serverOptions []service.AgentServerOption

	if v.GetBool("server.metrics") {
		serverOptions = append(serverOptions, service.WithMetrics(manager.Metrics()))
	}

	srv := service.NewAgentServer(card, dispatcher, serverOptions...)
	addr := net.JoinHostPort(v.GetString("server.host"), strconv.Itoa(v.GetInt("server.port")))
	errs := make(chan error, 1)

	go func() {
		errs <- srv.Start(addr)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v := viper.GetViper()

	registry, closeTools, err := newToolRegistry(ctx, v)

	if err != nil {
		return err
	}

	defer closeTools()

	srv := server.NewMCPServer(
		v.GetString("agent.name"),
		v.GetString("agent.version"),
		server.WithToolCapabilities(false),
	)

	registry.RegisterMCP(srv)

	log.Info("serving MCP on stdio", "tools", registry.Len())

	return server.ServeStdio(srv)
}

/*
newTaskStore builds the backend named by store.backend.
*/
func newTaskStore(ctx context.Context, v *viper.Viper) (stores.TaskStore, error) {
	backend := v.GetString("store.backend")

	switch backend {
	case "", "memory":
		return stores.NewInMemoryTaskStore(), nil
	case "s3":
		conn, err := s3.NewConn(s3.ConnConfig{
			Endpoint:  v.GetString("store.s3.endpoint"),
			AccessKey: v.GetString("store.s3.accessKey"),
			SecretKey: v.GetString("store.s3.secretKey"),
			Secure:    v.GetBool("store.s3.secure"),
		})

		if err != nil {
			return nil, fmt.Errorf("s3 task store: %w", err)
		}

		bucket := v.GetString("store.s3.bucket")

		if err := conn.EnsureBucket(ctx, bucket); err != nil {
			return nil, fmt.Errorf("s3 task store: %w", err)
		}

		log.Info("using s3 task store", "endpoint", v.GetString("store.s3.endpoint"), "bucket", bucket)

		return s3.NewStore(conn, bucket), nil
	}

	return nil, fmt.Errorf("unknown task store backend %q", backend)
}

/*
newToolRegistry declares the dice tool plus the tools of every MCP
server listed under tools.remote. The returned function closes the
remote sessions.
*/
func newToolRegistry(ctx context.Context, v *viper.Viper) (*tools.Registry, func(), error) {
	registry := tools.NewRegistry(tools.NewDice().Tool())
	remotes := make([]*tools.RemoteServer, 0)

	closeAll := func() {
		for _, remote := range remotes {
			if err := remote.Close(); err != nil {
				log.Warn("failed to close MCP session", "error", err)
			}
		}
	}

	for _, url := range v.GetStringSlice("tools.remote") {
		remote, err := tools.ConnectRemote(ctx, url, registry)

		if err != nil {
			closeAll()
			return nil, nil, err
		}

		remotes = append(remotes, remote)
	}

	return registry, closeAll, nil
}

var longServe = `
Serve the dice agent or expose its tools to MCP clients.

Examples:
  # Serve the agent on port 8080
  dice-agent serve agent --port 8080

  # Serve the tools over MCP on stdio
  dice-agent serve mcp
`
