package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/remixer1943/Ai/internal/embedding"
	"github.com/remixer1943/Ai/internal/retriever"
	"github.com/remixer1943/Ai/internal/server"
	"github.com/remixer1943/Ai/internal/storage"
)

var serveStore string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the vector store and serve retrieval over HTTP",
	Long: `Loads the vector store once, then answers POST /retrieve until interrupted.
The listener is only opened after the store has loaded, so a failed load exits
without ever accepting requests.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveStore, "store", "", "vector store handle (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return err
	}
	defer emb.Close()

	medium, err := openSource(cfg, serveStore)
	if err != nil {
		return err
	}
	defer medium.Close()

	r := retriever.New(emb,
		retriever.WithLogger(logger),
		retriever.WithQueryInstruction(cfg.Embedding.QueryInstruction),
	)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := r.Load(ctx, medium); err != nil {
		return err
	}

	var opts []server.ServerOption
	if local, ok := medium.(storage.Local); ok {
		opts = append(opts, server.WithDiskPaths(storage.LocalFiles(local)...))
	}
	srv := server.NewServer(r, cfg, logger, opts...)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
