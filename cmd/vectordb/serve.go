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

	"github.com/sahej/vectordb/internal/httpapi"
	"github.com/sahej/vectordb/pkg/core"
)

var (
	serveAddr     string
	serveSeedFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST gateway and background snapshotter",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		if serveSeedFile != "" && store.IsEmpty() {
			if err := store.LoadSeedFile(serveSeedFile); err != nil {
				return fmt.Errorf("load seed file: %w", err)
			}
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		snap := core.NewSnapshotter(store)
		go func() {
			if err := snap.Run(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "snapshotter stopped: %v\n", err)
			}
		}()

		server := httpapi.New(store)
		httpServer := &http.Server{Addr: serveAddr, Handler: server}

		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()

		fmt.Printf("vectordb listening on %s (data-dir=%s)\n", serveAddr, dataDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveSeedFile, "seed-file", "", "JSON seed file to load when the store starts empty")
}
