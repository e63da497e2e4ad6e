package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/config"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/httpapi"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/log"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/node"
)

var (
	// Version is set via ldflags at build time.
	Version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "harvestagent",
	Short:   "CloudHarvestAgent - worker-node task queue for the CloudHarvest platform",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("harvestagent version %s\n", Version))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(level),
		JSONOutput: jsonOutput,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agent version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("harvestagent version %s\n", Version)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agent: bootstrap from harvest.yaml and run until signalled",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

// serve is the bootstrap/run/shutdown lifecycle. Every startup failure
// returns an error here, converted to exit code 1 by main's Execute
// wrapper; nothing past this point calls os.Exit, so the steady-state
// loops can never be fatal.
func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	n, err := node.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("failed to bootstrap agent: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Agent.Connection.Host, cfg.Agent.Connection.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: httpapi.NewMux(n),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		pem := cfg.Agent.Connection.Pem
		log.Logger.Info().Str("addr", addr).Bool("tls", pem != "").Msg("harvestagent: control surface listening")

		var err error
		if pem != "" {
			err = server.ListenAndServeTLS(pem, pem)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	runDone := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(runDone)
	}()

	select {
	case <-runDone:
	case err := <-serverErrCh:
		log.Logger.Error().Err(err).Msg("harvestagent: control surface failed")
		stop()
		<-runDone
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Logger.Warn().Err(err).Msg("harvestagent: control surface did not shut down cleanly")
	}

	log.Logger.Info().Msg("harvestagent: clean stop")
	return nil
}
