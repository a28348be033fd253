package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/certledger/internal/httpapi"
	"github.com/roach88/certledger/internal/ids"
	"github.com/roach88/certledger/internal/service"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions

	// Ready is called with the bound address once the server accepts
	// connections. Tests use it with --addr 127.0.0.1:0.
	Ready func(net.Addr)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Start an HTTP server exposing the ledger as JSON.

Routes:
  POST /v1/certificates              submit (certificateId optional)
  GET  /v1/certificates              list
  GET  /v1/certificates/{id}         get
  POST /v1/certificates/{id}/confirm confirm
  POST /v1/verify                    verify {certificateId, digest}
  GET  /v1/search?id=|hash=|q=       lookup
  GET  /v1/stats                     stats
  GET  /healthz

The ledger is held in memory and is lost when the server stops.

Example:
  certledger serve --addr 127.0.0.1:8080 --backend sqlite`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().String("backend", service.BackendMemory, "ledger backend (memory|sqlite)")
	cmd.Flags().String("algorithm", "legacy32", "digest algorithm (legacy32|sha256)")
	cmd.Flags().String("id-prefix", ids.DefaultPrefix, "prefix for generated certificate ids")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, logger, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	svc, err := service.New(service.Options{
		Backend:   cfg.Store.Backend,
		Algorithm: cfg.Algorithm(),
		IDs:       ids.UUIDv7Generator{Prefix: cfg.IDs.Prefix},
		Logger:    logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer func() {
		if closeErr := svc.Close(); closeErr != nil {
			logger.Error("error closing ledger", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	ready := func(addr net.Addr) {
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", addr)
		if opts.Ready != nil {
			opts.Ready(addr)
		}
	}

	handler := httpapi.New(svc, logger)
	if err := httpapi.ListenAndServe(ctx, cfg.HTTP.Addr, handler, cfg.HTTP.ShutdownTimeout, logger, ready); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
