// Package main provides the entry point for the EventDesk client bridge.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/eventdesk/eventdesk-client/internal/di"
	"github.com/eventdesk/eventdesk-client/internal/logger"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start EventDesk: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bridge gracefully...")

	// The container shuts handles down in dependency order: bridge first,
	// then calls, store, index, broker, gateway and session.
	if report := injector.Shutdown(); !report.Succeed {
		log.Error("Shutdown error", "error", report.Error())
	}

	log.Info("Goodbye")
}
