package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shipfast/livesync/feed"
	"github.com/shipfast/livesync/gateway"
	"github.com/shipfast/livesync/internal/config"
	"github.com/shipfast/livesync/internal/logging"
	"github.com/shipfast/livesync/internal/session"
	"github.com/shipfast/livesync/store"
	"github.com/shipfast/livesync/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the livesync server",
	RunE:  runServe,
}

var (
	serveListen  string
	serveDB      string
	serveDev     bool
	serveVerbose bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "Database file path")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "Enable development routes (seed, reset)")
	serveCmd.Flags().BoolVar(&serveVerbose, "verbose", false, "Enable debug logging")
}

const shutdownTimeout = 5 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("listen") {
		serveListen = cfg.ListenAddr()
	}
	if !cmd.Flags().Changed("db") {
		serveDB, err = cfg.DatabasePath()
		if err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("dev") {
		serveDev = cfg.Server.DevRoutes
	}
	if !cmd.Flags().Changed("verbose") {
		serveVerbose = cfg.Server.Verbose
	}

	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required; set [auth] secret in livesync.toml")
	}
	tokenTTL, err := cfg.TokenTTL()
	if err != nil {
		return err
	}
	apiWindow, err := cfg.APIWindow()
	if err != nil {
		return err
	}
	authWindow, err := cfg.AuthWindow()
	if err != nil {
		return err
	}

	logger, err := logging.New(serveVerbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sessions, err := session.NewManager(cfg.Auth.Secret, tokenTTL)
	if err != nil {
		return err
	}

	hub := feed.NewHub()
	defer hub.Close()

	st, err := store.Open(serveDB, store.Options{Publisher: hub})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	gw := gateway.New(st, gateway.Options{
		Logger:      logger,
		Revalidator: loggingRevalidator{logger: logger},
	})

	handler := web.NewHandler(web.Options{
		Gateway:    gw,
		Store:      st,
		Hub:        hub,
		Sessions:   sessions,
		Logger:     logger,
		DevRoutes:  serveDev,
		APILimit:   cfg.APILimitOrDefault(),
		APIWindow:  apiWindow,
		AuthLimit:  cfg.AuthLimitOrDefault(),
		AuthWindow: authWindow,
	})

	server := &http.Server{
		Addr:    serveListen,
		Handler: handler,
	}

	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- server.ListenAndServe()
	}()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	logger.Info("serving",
		zap.String("listen", serveListen),
		zap.String("db", serveDB),
		zap.Bool("dev", serveDev),
	)

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	case <-interrupts:
		logger.Info("interrupt received, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		shutdownErr := server.Shutdown(shutdownCtx)
		cancel()
		listenErr := <-listenErrs
		if errors.Is(listenErr, http.ErrServerClosed) {
			listenErr = nil
		}
		if errors.Is(shutdownErr, http.ErrServerClosed) {
			shutdownErr = nil
		}
		return errors.Join(shutdownErr, listenErr)
	}
}

// loggingRevalidator records cache invalidations triggered by writes.
type loggingRevalidator struct {
	logger *zap.Logger
}

func (r loggingRevalidator) Revalidate(ownerID string) {
	r.logger.Debug("revalidate", zap.String("owner", ownerID))
}

func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return config.Load(cwd)
}
