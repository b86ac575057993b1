package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-console/core/loader"
	"catalog-console/core/logger"
	"catalog-console/core/middleware/auth"
	"catalog-console/core/middleware/rayid"

	"catalog-console/feature/audit"
	"catalog-console/feature/console"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the local console server",
	Long: `Starts the local HTTP console, the metrics endpoint and the background
refresh of the active collection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		cfg, logg := a.cfg, a.logger

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             cfg.Server.BodyLimit(),
		})

		// RayID first so every later log line carries it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			start := time.Now()
			err := c.Next()
			l.Info("Request handled",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().StatusCode()),
				zap.Duration("took", time.Since(start)),
			)
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/metrics"}}))

		mgr := loader.NewManager(logg)
		mgr.Register(console.NewFeature(console.NewService(a.coord, a.gateway, a.session, a.auth, cfg.Storage.Namespace, logg)))
		mgr.Register(audit.NewFeature(audit.NewService(a.coord, a.session, logg)))
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		if interval := cfg.Sync.RefreshInterval(); interval > 0 {
			go func() {
				if err := a.coord.Run(ctx, interval); err != nil && ctx.Err() == nil {
					logg.Error("Background refresh stopped", zap.Error(err))
				}
			}()
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
			errCh <- app.Listen(cfg.Server.Address())
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(10 * time.Second)
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
