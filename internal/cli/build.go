package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/remixer1943/Ai/internal/builder"
	"github.com/remixer1943/Ai/internal/embedding"
	"github.com/remixer1943/Ai/internal/storage"
	"github.com/remixer1943/Ai/internal/watcher"
)

var (
	buildKB    string
	buildOut   string
	buildWatch bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the knowledge base and save the vector store",
	Long: `Embeds every chunk of the knowledge base with the configured provider and
persists the result. With --watch the command keeps running and rebuilds whenever
the knowledge-base file changes.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildKB, "kb", "", "knowledge base JSON (default from config)")
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "vector store handle (default from config)")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "rebuild when the knowledge base changes")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	kbPath := buildKB
	if kbPath == "" {
		kbPath = cfg.KnowledgeBase.Path
	}

	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return err
	}
	defer emb.Close()

	medium, err := openMedium(cfg, buildOut)
	if err != nil {
		return err
	}
	defer medium.Close()

	b := builder.New(emb, builder.WithLogger(logger))
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildOnce(ctx, cmd, b, kbPath, medium); err != nil {
		if !buildWatch {
			return err
		}
		logger.Warn("initial build failed, waiting for changes", zap.Error(err))
	}
	if !buildWatch {
		return nil
	}

	var mu sync.Mutex
	w, err := watcher.NewWatcher([]string{kbPath}, func(string) {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := buildOnce(ctx, cmd, b, kbPath, medium); err != nil {
			logger.Warn("rebuild failed", zap.String("kb", kbPath), zap.Error(err))
		}
	}, watcher.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", kbPath, err)
	}
	defer w.Stop()
	logger.Info("watching knowledge base", zap.String("kb", kbPath))
	<-ctx.Done()
	return nil
}

func buildOnce(ctx context.Context, cmd *cobra.Command, b *builder.Builder, kbPath string, medium storage.Medium) error {
	vs, err := b.BuildFile(ctx, kbPath, medium)
	if err != nil {
		return err
	}
	headerColor.Fprintf(cmd.OutOrStdout(), "Built %d chunks", vs.Len())
	fmt.Fprintf(cmd.OutOrStdout(), " (%d dimensions, model %s) -> %s\n", vs.Dimensions(), vs.Meta.Model, medium.Location())
	return nil
}
