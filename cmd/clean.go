package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmacro/numix-cursor-hidpi/internal/config"
)

func init() {
	rootCmd.AddCommand(cleanCmd)
}

var cleanCmd = &cobra.Command{
	Use:           "clean",
	Short:         "Remove the build directory, including intermediates and the render cache",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(".")
		if err != nil {
			return err
		}
		if err := os.RemoveAll(cfg.BuildDir); err != nil {
			return fmt.Errorf("remove %s: %w", cfg.BuildDir, err)
		}
		fmt.Printf("Removed %s\n", cfg.BuildDir)
		return nil
	},
}
