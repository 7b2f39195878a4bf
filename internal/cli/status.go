package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/remixer1943/Ai/internal/storage"
)

var (
	statusServer string
	statusStore  string
	statusOutput string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vector store details",
	Long: `Prints the chunk count, dimensions, build id and model of the persisted vector
store. With --server the running server's /api/v1/status is shown instead.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusServer, "server", "", "URL of a running server")
	statusCmd.Flags().StringVar(&statusStore, "store", "", "vector store handle (default from config)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "O", "text", "output format: text or json")
	rootCmd.AddCommand(statusCmd)
}

// storeStatus is the status of a persisted vector store.
type storeStatus struct {
	Location       string    `json:"location"`
	Chunks         int       `json:"chunks"`
	Dimensions     int       `json:"dimensions"`
	BuildID        string    `json:"build_id"`
	Model          string    `json:"model"`
	CreatedAt      time.Time `json:"created_at"`
	DiskUsageBytes int64     `json:"disk_usage_bytes,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, err := ParseOutputFormat(statusOutput)
	if err != nil {
		return err
	}
	if statusServer != "" {
		raw, err := statusViaHTTP(cmd.Context(), statusServer)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), raw)
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	medium, err := openSource(cfg, statusStore)
	if err != nil {
		return err
	}
	defer medium.Close()
	vs, err := medium.Load(cmd.Context())
	if err != nil {
		return err
	}
	st := storeStatus{
		Location:   medium.Location(),
		Chunks:     vs.Len(),
		Dimensions: vs.Dimensions(),
		BuildID:    vs.Meta.BuildID,
		Model:      vs.Meta.Model,
		CreatedAt:  vs.Meta.CreatedAt,
	}
	if local, ok := medium.(storage.Local); ok {
		if n, err := storage.DiskUsageBytes(storage.LocalFiles(local)...); err == nil {
			st.DiskUsageBytes = n
		}
	}
	if format == OutputJSON {
		return writeJSON(cmd.OutOrStdout(), st)
	}
	pairs := [][2]string{
		{"location", st.Location},
		{"chunks", strconv.Itoa(st.Chunks)},
		{"dimensions", strconv.Itoa(st.Dimensions)},
		{"build_id", st.BuildID},
		{"model", st.Model},
		{"created_at", st.CreatedAt.Format(time.RFC3339)},
	}
	if st.DiskUsageBytes > 0 {
		pairs = append(pairs, [2]string{"disk_usage", strconv.FormatInt(st.DiskUsageBytes, 10) + " bytes"})
	}
	writeKV(cmd.OutOrStdout(), pairs)
	return nil
}

func statusViaHTTP(ctx context.Context, serverURL string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(serverURL, "/")+"/api/v1/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
