package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/tejzpr/fieldschema-mcp/internal/config"
	"github.com/tejzpr/fieldschema-mcp/internal/db"
	"github.com/tejzpr/fieldschema-mcp/internal/handler"
	"github.com/tejzpr/fieldschema-mcp/internal/logging"
	"github.com/tejzpr/fieldschema-mcp/internal/webserver"
)

const version = "1.0.0"

func main() {
	// Parse --env-file argument
	envFile := ".env"
	for i, arg := range os.Args[1:] {
		if arg == "--env-file" && i+1 < len(os.Args[1:]) {
			envFile = os.Args[i+2]
			break
		}
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\nusage: fieldschema-mcp [--env-file <path>]\n", err)
		os.Exit(1)
	}
	logging.Configure(cfg.LogLevel)
	log := logging.Component("main")

	db.SetPageLimits(cfg.PageLimit, cfg.MaxPageLimit)
	if _, err := db.Init(cfg.DBPath, logging.Log.IsLevelEnabled(logrus.DebugLevel)); err != nil {
		log.WithError(err).WithField("path", cfg.DBPath).Fatal("failed to open database")
	}

	if cfg.HTTPEnabled {
		if err := webserver.Start(cfg.HTTPPort); err != nil {
			log.WithError(err).Warn("admin server not started")
		}
	}

	s := server.NewMCPServer(
		"fieldschema-mcp",
		version,
		server.WithToolCapabilities(false),
	)
	handler.Register(s)

	log.WithField("version", version).Info("serving MCP over stdio")
	if err := server.ServeStdio(s); err != nil {
		log.WithError(err).Error("server error")
	}
}
