package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/bizcrawl/internal/ui"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every record from the configured store",
	Example: `  # Clear the PostgreSQL table
  bizcrawl reset --sink postgres`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		if err := a.Store.DeleteAll(cmd.Context()); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "%s (%s)\n", ui.Success("All business data deleted"), a.Config.Sink)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
