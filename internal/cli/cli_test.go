package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remixer1943/Ai/internal/config"
	"github.com/remixer1943/Ai/internal/eval"
	"github.com/remixer1943/Ai/internal/models"
)

// execute runs the root command with args and returns its stdout. Flag values are
// reset first because cobra keeps them between executions.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeProject creates a config using the mock embedder plus a two-chunk knowledge base.
func writeProject(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	cfg := `embedding:
  provider: mock
  dimensions: 256
storage:
  vector_store: ./store.bin
  compression: zstd
knowledge_base:
  path: ./kb.json
eval:
  top_k: 1
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	kb := `[
  {"id": "chunk-1", "text": "苹果是一种水果", "source": "fruit.pdf"},
  {"id": "chunk-2", "text": "猫是一种宠物", "source": "pets.pdf"}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kb.json"), []byte(kb), 0644))
	return dir, cfgPath
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rag version")
}

func TestQueryCmd_RequiresArgs(t *testing.T) {
	_, err := execute(t, "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestEvalCmd_RequiresDataset(t *testing.T) {
	_, err := execute(t, "eval")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset")
}

func TestQueryCmd_Flags(t *testing.T) {
	f := queryCmd.Flags().Lookup("top-k")
	require.NotNil(t, f)
	assert.Equal(t, "k", f.Shorthand)
	assert.Equal(t, "0", f.DefValue)
	require.NotNil(t, queryCmd.Flags().Lookup("server"))
	require.NotNil(t, buildCmd.Flags().Lookup("watch"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestBuildQueryStatusEval_EndToEnd(t *testing.T) {
	dir, cfgPath := writeProject(t)

	out, err := execute(t, "--config", cfgPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 2 chunks")
	assert.FileExists(t, filepath.Join(dir, "store.bin"))

	out, err = execute(t, "--config", cfgPath, "query", "--output", "json", "苹果")
	require.NoError(t, err)
	var resp models.RetrieveResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Chunks, 2)
	assert.Equal(t, "chunk-1", resp.Chunks[0].ID)
	assert.Greater(t, resp.Chunks[0].Score, resp.Chunks[1].Score)

	out, err = execute(t, "--config", cfgPath, "query", "-k", "1", "苹果")
	require.NoError(t, err)
	assert.Contains(t, out, "chunk-1")
	assert.NotContains(t, out, "chunk-2")

	out, err = execute(t, "--config", cfgPath, "status", "--output", "json")
	require.NoError(t, err)
	var st storeStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 2, st.Chunks)
	assert.Equal(t, 256, st.Dimensions)
	assert.Equal(t, "mock", st.Model)
	assert.NotEmpty(t, st.BuildID)
	assert.Positive(t, st.DiskUsageBytes)

	dataset := filepath.Join(dir, "eval.json")
	require.NoError(t, os.WriteFile(dataset, []byte(
		`[{"query":"苹果","relevant_ids":["chunk-1"]},{"query":"宠物","relevant_ids":["chunk-2"]}]`), 0644))
	out, err = execute(t, "--config", cfgPath, "eval", "--dataset", dataset, "--output", "json")
	require.NoError(t, err)
	var report eval.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Samples)
	assert.InDelta(t, 1.0, report.PrecisionAtK, 1e-9)
}

func TestQueryCmd_BlankQueryIsRejected(t *testing.T) {
	_, cfgPath := writeProject(t)
	_, err := execute(t, "--config", cfgPath, "build")
	require.NoError(t, err)

	_, err = execute(t, "--config", cfgPath, "query", "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
}

func TestQueryCmd_MissingStore(t *testing.T) {
	_, cfgPath := writeProject(t)
	_, err := execute(t, "--config", cfgPath, "query", "苹果")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrLoadFailure)
}

func TestQueryCmd_MissingSQLiteStoreNotCreated(t *testing.T) {
	dir, cfgPath := writeProject(t)
	dbPath := filepath.Join(dir, "absent.db")
	_, err := execute(t, "--config", cfgPath, "query", "--store", "sqlite://"+dbPath, "苹果")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrLoadFailure)
	assert.NoFileExists(t, dbPath)
}

func TestBuildCmd_SQLiteThenQuery(t *testing.T) {
	dir, cfgPath := writeProject(t)
	handle := "sqlite://" + filepath.Join(dir, "store.db")
	_, err := execute(t, "--config", cfgPath, "build", "--out", handle)
	require.NoError(t, err)

	out, err := execute(t, "--config", cfgPath, "query", "--store", handle, "--output", "json", "-k", "1", "苹果")
	require.NoError(t, err)
	assert.Contains(t, out, "chunk-1")
}

func TestBuildCmd_InvalidKnowledgeBase(t *testing.T) {
	dir, cfgPath := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kb.json"), []byte(`[{"id":"chunk-1","text":"  "}]`), 0644))
	_, err := execute(t, "--config", cfgPath, "build")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBuildInput)
	assert.NoFileExists(t, filepath.Join(dir, "store.bin"))
}

func TestConvertCmd(t *testing.T) {
	dir, cfgPath := writeProject(t)
	doc := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(doc, []byte("苹果是一种水果。\n\n\n猫是一种宠物。"), 0644))
	out := filepath.Join(dir, "converted.json")

	stdout, err := execute(t, "--config", cfgPath, "convert", doc, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "notes")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var kb struct {
		Title       string         `json:"title"`
		TotalChunks int            `json:"totalChunks"`
		Chunks      []models.Chunk `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal(data, &kb))
	assert.Equal(t, "notes", kb.Title)
	require.Equal(t, 1, kb.TotalChunks)
	assert.Equal(t, "chunk-1", kb.Chunks[0].ID)
	assert.Equal(t, "notes", kb.Chunks[0].Source)
}

func TestQueryCmd_ViaServer(t *testing.T) {
	_, cfgPath := writeProject(t)
	var got models.RetrieveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/retrieve", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(models.RetrieveResponse{Chunks: []models.RetrievalResult{
			{ID: "chunk-9", Text: "远程结果", Source: "remote", Score: 0.5},
		}})
	}))
	defer srv.Close()

	out, err := execute(t, "--config", cfgPath, "query", "--server", srv.URL, "-k", "3", "远程", "查询")
	require.NoError(t, err)
	assert.Contains(t, out, "chunk-9")
	assert.Equal(t, "远程 查询", got.Query)
	require.NotNil(t, got.TopK)
	assert.Equal(t, 3, *got.TopK)
}

func TestQueryCmd_ViaServerError(t *testing.T) {
	_, cfgPath := writeProject(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"not ready"}`))
	}))
	defer srv.Close()

	_, err := execute(t, "--config", cfgPath, "query", "--server", srv.URL, "苹果")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestJoinQuery(t *testing.T) {
	assert.Equal(t, "苹果 价格", joinQuery([]string{"苹果", "价格"}))
	assert.Equal(t, "苹果 价格", joinQuery([]string{"苹果 价格"}))
	assert.Equal(t, "", joinQuery([]string{"  "}))
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	out, err := execute(t, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data", "vector_store.bin"), cfg.Storage.VectorStore)

	_, err = execute(t, "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", "--force", path)
	assert.NoError(t, err)
}

func TestConvertCmd_UnsupportedFormat(t *testing.T) {
	_, cfgPath := writeProject(t)
	_, err := execute(t, "--config", cfgPath, "convert", "slides.pptx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}
