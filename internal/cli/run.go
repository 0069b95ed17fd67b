// internal/cli/run.go
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/bizcrawl/internal/engine"
	"github.com/law-makers/bizcrawl/internal/secrets"
	"github.com/law-makers/bizcrawl/internal/sink"
	"github.com/law-makers/bizcrawl/internal/ui"
	"github.com/law-makers/bizcrawl/internal/utils/output"
	urlutil "github.com/law-makers/bizcrawl/internal/utils/url"
	"github.com/law-makers/bizcrawl/pkg/models"
)

var runOutput string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [search-url]",
	Short: "Crawl a directory search and extract every business profile",
	Long: `Walks the search results page by page, visits each business profile once and
extracts one record per profile.

The search URL may contain a {page} placeholder; otherwise its page query
parameter is set for each page. A page that fails to load ends pagination,
and the records collected so far are still returned and saved.`,
	Example: `  # Crawl the default search with the embedded-data extractor
  bizcrawl run

  # Crawl a custom search, ten pages, and save as a spreadsheet
  bizcrawl run "https://www.bbb.org/search?find_text=Plumbing&page={page}" --max-pages=10 -o plumbers.xlsx

  # Use the language model extractor and persist to PostgreSQL
  bizcrawl run --llm --sink=postgres`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("llm", false, "Extract fields with the language model instead of embedded page data")
	runCmd.Flags().Int("max-pages", engine.DefaultMaxPages, "Number of search result pages to visit")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "File path to save records (supports .json, .csv, .xlsx)")
}

func runRun(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	searchURL := a.Config.SearchURL
	if len(args) == 1 {
		searchURL = args[0]
	}
	if err := urlutil.ValidateURL(searchURL); err != nil {
		return err
	}

	mode, err := a.Mode(false)
	if err != nil {
		return err
	}
	if _, ok := a.Extractors[mode]; !ok {
		return fmt.Errorf("%s extraction is not available (set an API key with \"bizcrawl secret set %s\")", mode, secrets.AnthropicAPIKey)
	}

	interactive := isatty.IsTerminal(os.Stderr.Fd()) && zerolog.GlobalLevel() >= zerolog.WarnLevel && !a.Config.JSONLog
	ui.Enabled = isatty.IsTerminal(os.Stdout.Fd())

	var bar *progressbar.ProgressBar
	if interactive {
		bar = newPageBar(os.Stderr, a.Config.MaxPages)
		a.Crawler.OnPage = func(p engine.PageProgress) {
			bar.Describe(fmt.Sprintf("page %d/%d, %d records", p.Page, p.MaxPages, p.Records))
			_ = bar.Set(p.Page)
		}
	}

	start := time.Now()
	records, err := a.Crawler.Run(cmd.Context(), searchURL, mode)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	printSummary(os.Stderr, records, a.Sink.Stats(), time.Since(start))

	if runOutput != "" {
		if err := output.Save(records, runOutput); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.Success("Saved to"), runOutput)
		return nil
	}
	return printRecords(os.Stdout, records)
}

func newPageBar(w io.Writer, maxPages int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxPages,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("searching"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(ui.Enabled),
	)
}

func printSummary(w io.Writer, records []models.BusinessRecord, stats sink.Stats, elapsed time.Duration) {
	fmt.Fprintf(w, "\n%s\n", ui.Bold("Crawl complete"))
	fmt.Fprintf(w, "  Records    %s\n", ui.Success(fmt.Sprint(len(records))))
	fmt.Fprintf(w, "  Inserted   %d\n", stats.Inserted)
	fmt.Fprintf(w, "  Duplicates %s\n", ui.Info(fmt.Sprint(stats.Duplicate)))
	if stats.Failed > 0 {
		fmt.Fprintf(w, "  Failed     %s\n", ui.Error(fmt.Sprint(stats.Failed)))
	}
	fmt.Fprintf(w, "  Elapsed    %s\n\n", elapsed.Round(time.Millisecond))

	log.Debug().Int("records", len(records)).Dur("elapsed", elapsed).Msg("Run summary printed")
}

func printRecords(w io.Writer, records []models.BusinessRecord) error {
	if records == nil {
		records = []models.BusinessRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
