// Package cli implements the rag command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/remixer1943/Ai/internal/config"
	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/internal/storage"
	"github.com/remixer1943/Ai/internal/store"
	"github.com/remixer1943/Ai/pkg/utils"
)

var version = "dev"

var (
	configPath string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "rag",
	Short: "Semantic retrieval over a fixed knowledge base",
	Long: `rag builds a vector store from a chunked knowledge base (offline) and answers
natural-language queries with the most similar chunks (online).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml, then built-in defaults)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// Execute runs the root command with the given build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// loadConfig loads the file named by --config. Without the flag it uses ./config.yaml
// when present and the built-in defaults otherwise. Returns the path actually loaded,
// empty for defaults.
func loadConfig() (*config.Config, string, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, configPath, nil
	}
	if cwd, err := os.Getwd(); err == nil {
		fallback := filepath.Join(cwd, "config.yaml")
		if _, statErr := os.Stat(fallback); statErr == nil {
			cfg, loadErr := config.Load(fallback)
			if loadErr != nil {
				return nil, "", loadErr
			}
			return cfg, fallback, nil
		}
	}
	return config.Default(), "", nil
}

// setup loads config and creates the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if resolved != "" {
		logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))
	} else {
		logger.Debug("no config file found, using defaults")
	}
	return cfg, logger, nil
}

// openMedium opens handle, or the configured vector store when handle is empty.
func openMedium(cfg *config.Config, handle string) (storage.Medium, error) {
	return openStorage(cfg, handle, false)
}

// openSource opens the store for loading only. Failures are LoadFailure errors.
func openSource(cfg *config.Config, handle string) (storage.Medium, error) {
	m, err := openStorage(cfg, handle, true)
	if err != nil {
		return nil, models.WrapError(models.KindLoadFailure, err, "open vector store")
	}
	return m, nil
}

func openStorage(cfg *config.Config, handle string, readOnly bool) (storage.Medium, error) {
	if handle == "" {
		handle = cfg.Storage.VectorStore
	}
	c, err := store.ParseCompression(cfg.Storage.Compression)
	if err != nil {
		return nil, err
	}
	return storage.Open(handle, storage.Options{
		Compression: c,
		ReadOnly:    readOnly,
		S3: storage.S3Options{
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			UseSSL:    cfg.Storage.S3.UseSSL,
			Region:    cfg.Storage.S3.Region,
		},
	})
}
