package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegraph/conc"

	"github.com/Aymensat/CarthageGate/agent"
	"github.com/Aymensat/CarthageGate/config"
	"github.com/Aymensat/CarthageGate/llm"
	"github.com/Aymensat/CarthageGate/logging"
	"github.com/Aymensat/CarthageGate/planner"
	"github.com/Aymensat/CarthageGate/server"
	"github.com/Aymensat/CarthageGate/telegram"
	"github.com/Aymensat/CarthageGate/tools"

	. "github.com/Aymensat/CarthageGate/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		L_fatal("config: load failed", "error", err)
	}

	logOpts := logging.DefaultLogOptions()
	logOpts.Level = cfg.LogLevel
	logging.Setup(logOpts)

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			L_fatal("OPENROUTER_API_KEY environment variable is required")
		}
		L_fatal("config: invalid", "error", err)
	}

	// Cancel on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// City gateway and its tools
	gwClient := tools.NewGatewayClient(context.Background(), tools.GatewayAuth{
		Token:        cfg.GatewayToken,
		ClientID:     cfg.GatewayClientID,
		ClientSecret: cfg.GatewayClientSecret,
		TokenURL:     cfg.GatewayTokenURL,
	})
	gw := tools.NewGateway(cfg.GatewayURL, gwClient)
	registry := tools.NewCityRegistry(gw)

	model := llm.New(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.ModelBaseURL,
		Model:   cfg.Model,
	})

	var agentOpts []agent.Option
	if cfg.ModelReasoning {
		agentOpts = append(agentOpts, agent.WithFirstTurnOptions(
			llm.WithExtraBody(map[string]any{"reasoning": map[string]any{"enabled": true}}),
		))
	}
	chatAgent, err := agent.New(model, registry, agentOpts...)
	if err != nil {
		L_fatal("agent: init failed", "error", err)
	}

	L_info("startup", "model", model.Model(), "gateway", cfg.GatewayURL, "tools", len(registry.All()))

	srv := server.New(server.Config{
		Listen:         cfg.ListenAddr,
		MaxConnections: cfg.MaxConnections,
	}, chatAgent, planner.New(gw))

	var wg conc.WaitGroup
	var serveErr error
	wg.Go(func() {
		serveErr = srv.Run(ctx)
		stop()
	})

	if cfg.TelegramToken != "" {
		bot, err := telegram.New(cfg.TelegramToken, chatAgent)
		if err != nil {
			L_error("telegram: disabled", "error", err)
		} else {
			wg.Go(func() { bot.Run(ctx) })
		}
	}

	wg.Wait()
	if serveErr != nil {
		L_fatal("http: server failed", "error", serveErr)
	}
	L_info("shutdown complete")
}
