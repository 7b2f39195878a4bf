package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/remixer1943/Ai/internal/config"
	"github.com/remixer1943/Ai/internal/embedding"
	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/internal/retriever"
)

var (
	queryTopK   int
	queryServer string
	queryStore  string
	queryOutput string
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve the chunks most similar to a query",
	Long: `Embeds the query and prints the top-k most similar chunks. All arguments are
joined by spaces, so quoting multi-word queries is optional.
With --server the query is sent to a running "rag serve" instead of loading the
vector store in-process.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks (default from config)")
	queryCmd.Flags().StringVar(&queryServer, "server", "", "URL of a running server, e.g. http://localhost:5001")
	queryCmd.Flags().StringVar(&queryStore, "store", "", "vector store handle (default from config)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "O", "text", "output format: text or json")
	rootCmd.AddCommand(queryCmd)
}

// joinQuery joins positional args so quoted and unquoted queries behave the same.
func joinQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runQuery(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(queryOutput)
	if err != nil {
		return err
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	query := joinQuery(args)
	topK := queryTopK
	if !cmd.Flags().Changed("top-k") {
		topK = cfg.Retrieval.DefaultTopK
	}

	var results []models.RetrievalResult
	if queryServer != "" {
		results, err = retrieveViaHTTP(cmd.Context(), queryServer, query, topK)
	} else {
		results, err = retrieveLocal(cmd.Context(), cfg, logger, query, topK)
	}
	if err != nil {
		return err
	}
	return WriteResults(cmd.OutOrStdout(), query, results, format)
}

func retrieveLocal(ctx context.Context, cfg *config.Config, logger *zap.Logger, query string, topK int) ([]models.RetrievalResult, error) {
	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	defer emb.Close()

	medium, err := openSource(cfg, queryStore)
	if err != nil {
		return nil, err
	}
	defer medium.Close()

	r := retriever.New(emb,
		retriever.WithLogger(logger),
		retriever.WithQueryInstruction(cfg.Embedding.QueryInstruction),
	)
	if err := r.Load(ctx, medium); err != nil {
		return nil, err
	}
	return r.Retrieve(ctx, query, topK)
}

var httpClient = &http.Client{Timeout: 2 * time.Minute}

func retrieveViaHTTP(ctx context.Context, serverURL, query string, topK int) ([]models.RetrievalResult, error) {
	body, err := json.Marshal(models.RetrieveRequest{Query: query, TopK: &topK})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(serverURL, "/")+"/retrieve", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out models.RetrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Chunks, nil
}
