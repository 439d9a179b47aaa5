package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// runServer serves `handler` on `addr` until `ctx` is canceled, then shuts
// the server down gracefully.
func runServer(
	ctx context.Context,
	logger zerolog.Logger,
	addr string,
	handler http.Handler,
) error {
	server := http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		sdc, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := server.Shutdown(sdc); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		logger.Info().Msg("http server shutdown")
		return nil
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	}
}
