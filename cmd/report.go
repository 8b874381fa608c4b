package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/tmacro/numix-cursor-hidpi/internal/cache"
	"github.com/tmacro/numix-cursor-hidpi/internal/config"
)

var reportCopy bool

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportCopy, "copy", false, "copy the summary to the clipboard")
}

var reportCmd = &cobra.Command{
	Use:           "report",
	Short:         "Show the summary of the most recent build",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(".")
		if err != nil {
			return err
		}

		c, err := cache.Open(cfg.BuildDir)
		if err != nil {
			return err
		}
		defer c.Close()

		rec, err := c.LatestBuild()
		if errors.Is(err, sql.ErrNoRows) {
			fmt.Println("No builds recorded yet — run 'themebuild build' first")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Theme:    %s\n", rec.Theme)
		fmt.Printf("Finished: %s\n", rec.FinishedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Built:    %d cursors\n", rec.Built)
		fmt.Printf("Failed:   %d cursors\n", rec.Failed)
		fmt.Printf("Aliases:  %d\n\n", rec.Aliases)
		fmt.Println(rec.Summary)

		if reportCopy {
			if err := clipboard.WriteAll(rec.Summary); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not copy to clipboard: %v\n", err)
			} else {
				fmt.Println("Summary copied to clipboard!")
			}
		}
		return nil
	},
}
