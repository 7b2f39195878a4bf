package cli

import (
	"github.com/spf13/cobra"

	"github.com/remixer1943/Ai/internal/embedding"
	"github.com/remixer1943/Ai/internal/eval"
	"github.com/remixer1943/Ai/internal/retriever"
)

var (
	evalDataset string
	evalK       int
	evalStore   string
	evalOutput  string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure precision@k on a labeled query set",
	Long: `Runs every query of a JSON dataset ([{"query": ..., "relevant_ids": [...]}])
against the vector store and reports the mean precision@k.`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalDataset, "dataset", "d", "", "labeled query set (JSON)")
	evalCmd.Flags().IntVarP(&evalK, "k", "k", 0, "cutoff k (default from config)")
	evalCmd.Flags().StringVar(&evalStore, "store", "", "vector store handle (default from config)")
	evalCmd.Flags().StringVarP(&evalOutput, "output", "O", "text", "output format: text or json")
	_ = evalCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	format, err := ParseOutputFormat(evalOutput)
	if err != nil {
		return err
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	k := evalK
	if !cmd.Flags().Changed("k") {
		k = cfg.Eval.TopK
	}
	samples, err := eval.LoadDataset(evalDataset)
	if err != nil {
		return err
	}

	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return err
	}
	defer emb.Close()

	medium, err := openSource(cfg, evalStore)
	if err != nil {
		return err
	}
	defer medium.Close()

	r := retriever.New(emb,
		retriever.WithLogger(logger),
		retriever.WithQueryInstruction(cfg.Embedding.QueryInstruction),
	)
	if err := r.Load(cmd.Context(), medium); err != nil {
		return err
	}

	h := eval.NewHarness(r, eval.WithLogger(logger), eval.WithConcurrency(cfg.Eval.Concurrency))
	report, err := h.Run(cmd.Context(), samples, k)
	if err != nil {
		return err
	}
	return WriteReport(cmd.OutOrStdout(), report, k, format)
}
