package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remixer1943/Ai/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Long: `Writes the built-in defaults to path (default ./config.yaml). Relative paths in
the file are resolved against the directory the config lives in.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "config.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	cmd.Printf("Wrote %s\n", path)
	return nil
}
