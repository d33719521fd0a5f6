package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"
	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/config"
	"github.com/cnosuke/judolhunter/runner"
	"github.com/cnosuke/judolhunter/server/tools"
)

// Run - Execute the MCP server over stdio until interrupted
func Run(cfg *config.Config, name string, version string, revision string) error {
	// Format version string with revision if available
	versionString := version
	if revision != "" && revision != "xxx" {
		versionString = versionString + " (" + revision + ")"
	}
	zap.S().Infow("starting MCP judolhunter server",
		"name", name,
		"version", versionString)

	engine, err := runner.NewEngine(cfg)
	if err != nil {
		zap.S().Errorw("failed to create scan engine", "error", err)
		return err
	}

	zap.S().Debugw("creating MCP server")
	mcpServer := mcp.NewServer(stdio.NewStdioServerTransport())

	// Register all tools
	zap.S().Debugw("registering tools")
	if err := tools.RegisterAllTools(mcpServer, engine.Scanner, engine.Discoverer, cfg.Discovery.MaxSubpages); err != nil {
		zap.S().Errorw("failed to register tools", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the server with stdio transport
	zap.S().Infow("starting MCP server")
	if err := mcpServer.Serve(); err != nil {
		zap.S().Errorw("failed to start server", "error", err)
		return errors.Wrap(err, "failed to start server")
	}

	// Serve returns immediately; requests are handled until a signal arrives
	<-ctx.Done()
	zap.S().Infow("server shutting down")
	return nil
}
