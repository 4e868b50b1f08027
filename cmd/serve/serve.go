// Package serve runs the HTTP API and the retrain scheduler
package serve

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"intellifinance/fincat/cmd/root"
	"intellifinance/fincat/internal/api"

	"github.com/spf13/cobra"
)

const schedulerStopTimeout = 30 * time.Second

var address string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the categorization API over HTTP",
	Long: `Serve categorization, training, feedback and the finance assistant over HTTP
under /api/v1. When retrain.enabled is set, the model is also retrained from
recorded feedback on retrain.schedule. Stops gracefully on SIGINT or SIGTERM.

Example:
  fincat serve --address :9090`,
	Args: cobra.NoArgs,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&address, "address", "", "Listen address (default: server.address)")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer(cmd)
	if err != nil {
		return err
	}
	cfg := c.GetConfig()
	log := c.GetLogger()

	apiCfg := api.Config{
		Address:      cfg.Server.Address,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}
	if address != "" {
		apiCfg.Address = address
	}

	var asst api.Assistant
	if a := c.GetAssistant(); a != nil {
		asst = a
	}
	server, err := api.NewServer(apiCfg, c.GetCategorizer(), asst, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if scheduler := c.GetRetrainScheduler(); scheduler != nil {
		scheduler.Start()
		defer func() {
			select {
			case <-scheduler.Stop().Done():
			case <-time.After(schedulerStopTimeout):
				log.Warn("Retrain still running at shutdown")
			}
		}()
	}

	if err := server.Run(ctx); err != nil {
		log.WithError(err).Error("Server stopped with error")
		return err
	}
	return nil
}
