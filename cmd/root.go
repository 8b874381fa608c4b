package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "themebuild",
	Short: "Build the Numix HiDPI X11 cursor theme from vector sources",
	Long: `themebuild renders the theme's SVG cursor sources at every configured
DPI size, compiles the bitmaps into Xcursor files with xcursorgen, resolves
desktop-environment alias names, and writes an installable theme directory.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
