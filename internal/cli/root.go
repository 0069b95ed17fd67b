// internal/cli/root.go
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/bizcrawl/internal/app"
	"github.com/law-makers/bizcrawl/internal/config"
)

// annotationNoApp marks commands that run without a store or crawler (e.g. secret management)
const annotationNoApp = "bizcrawl/no-app"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bizcrawl",
	Short: "Crawl business directory search results into structured records",
	Long: `Bizcrawl walks the paginated results of a business directory search, visits
every business profile once and extracts its name, phone, principal contact,
website, address and accreditation status.

Fields are read either from the data the profile page embeds for itself
(explicit mode) or by asking a language model about the rendered page
(model mode). Records can be saved to a file and persisted to memory,
PostgreSQL, Redis or a remote submit endpoint.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with ctx, which is cancelled on interrupt.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	rootCmd.Flags().BoolP("help", "h", false, "Help for bizcrawl")
	rootCmd.Flags().Bool("version", false, "Version for bizcrawl")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)

	// Initialize the application lazily so -h/--help never touches the store
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		_, noApp := cmd.Annotations[annotationNoApp]

		cfg, err := config.Load(cmd)
		if err != nil {
			if !noApp {
				return err
			}
			// credentials can be managed even while the rest of the config is incomplete
			cfg = config.Defaults()
		}
		initLogging(cfg)
		if noApp {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	// Ensure the store is closed after the command runs
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		if a == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := a.Close(ctx)
		SetApp(cmd, nil)
		return err
	}
}
