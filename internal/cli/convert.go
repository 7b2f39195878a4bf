package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/remixer1943/Ai/internal/extract"
	"github.com/remixer1943/Ai/internal/knowledge"
)

var (
	convertSource string
	convertOut    string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Extract, clean and chunk a document into a knowledge base",
	Long: `Extracts the text of a PDF, DOCX, XLSX or plain-text file, normalizes whitespace
and splits it into overlapping chunks. The result is the knowledge-base JSON
consumed by build.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertSource, "source", "", "source label for every chunk (default file name)")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "output path (default from config)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if ext := filepath.Ext(args[0]); !extract.Supported(ext) {
		return fmt.Errorf("unsupported document format %q (supported: .pdf .docx .xlsx .txt .md)", ext)
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := convertOut
	if out == "" {
		out = cfg.KnowledgeBase.Path
	}
	conv := knowledge.NewConverter(cfg.KnowledgeBase.ChunkSize, cfg.KnowledgeBase.ChunkOverlap)
	kb, doc, err := conv.Convert(args[0], convertSource)
	if err != nil {
		return err
	}
	if err := knowledge.Save(out, kb); err != nil {
		return err
	}
	writeKV(cmd.OutOrStdout(), [][2]string{
		{"source", kb.Title},
		{"format", doc.Format},
		{"pages", strconv.Itoa(doc.Pages)},
		{"characters", strconv.Itoa(len([]rune(doc.Text)))},
		{"chunks", strconv.Itoa(kb.TotalChunks)},
		{"written", out},
	})
	return nil
}
