package service

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/metrics"
)

const (
	livenessPath  = "/livez"
	readinessPath = "/readyz"
	metricsPath   = "/metrics"
)

/*
AgentServer exposes the dispatcher over HTTP and publishes the agent
card. It is safe for concurrent use because the dispatcher is.
*/
type AgentServer struct {
	app        *fiber.App
	card       *a2a.AgentCard
	dispatcher *Dispatcher
	metrics    *metrics.TaskMetrics
}

type AgentServerOption func(*AgentServer)

func NewAgentServer(
	card *a2a.AgentCard, dispatcher *Dispatcher, options ...AgentServerOption,
) *AgentServer {
	srv := &AgentServer{
		app: fiber.New(fiber.Config{
			AppName:      card.Name,
			ServerHeader: "dice-agent",
		}),
		card:       card,
		dispatcher: dispatcher,
	}

	for _, option := range options {
		option(srv)
	}

	srv.app.Use(logger.New(logger.Config{
		Next: func(c fiber.Ctx) bool {
			return quietPath(c.Path())
		},
	}))

	srv.app.Get(livenessPath, healthcheck.New())
	srv.app.Get(readinessPath, healthcheck.New())
	srv.app.Get("/.well-known/agent.json", srv.handleAgentCard)
	if srv.metrics != nil {
		srv.app.Get(metricsPath, srv.handleMetrics)
	}

	srv.app.Post("/", srv.handleRPC)
	srv.app.Post("/rpc", srv.handleRPC)

	return srv
}

// quietPath reports whether requests to path stay out of the access log.
func quietPath(path string) bool {
	switch path {
	case livenessPath, readinessPath, metricsPath:
		return true
	}

	return false
}

func (srv *AgentServer) App() *fiber.App {
	return srv.app
}

// Start blocks serving on addr until the server is shut down.
func (srv *AgentServer) Start(addr string) error {
	log.Info("agent listening", "addr", addr, "agent", srv.card.Name)
	return srv.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *AgentServer) Shutdown(ctx context.Context) error {
	log.Info("shutting down agent", "agent", srv.card.Name)
	return srv.app.ShutdownWithContext(ctx)
}

func (srv *AgentServer) handleAgentCard(ctx fiber.Ctx) error {
	return ctx.JSON(srv.card)
}

func (srv *AgentServer) handleMetrics(ctx fiber.Ctx) error {
	return ctx.JSON(srv.metrics.Snapshot())
}

func (srv *AgentServer) handleRPC(ctx fiber.Ctx) error {
	reply := srv.dispatcher.Dispatch(ctx, ctx.Body())

	if reply.Status >= fiber.StatusBadRequest {
		log.Warn("rpc error", "status", reply.Status, "body", reply.Body)
	}

	return ctx.Status(reply.Status).JSON(reply.Body)
}

// WithMetrics publishes m as JSON on /metrics.
func WithMetrics(m *metrics.TaskMetrics) AgentServerOption {
	return func(srv *AgentServer) {
		srv.metrics = m
	}
}
