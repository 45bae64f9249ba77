// Package main provides the sitecrawl CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mwalden/sitecrawl/config"
	"github.com/mwalden/sitecrawl/crawler"
	"github.com/mwalden/sitecrawl/internal/export"
	"github.com/mwalden/sitecrawl/tui"
)

// cliFlags holds the persistent flags shared by every subcommand.
type cliFlags struct {
	configFile        string
	maxPages          int
	maxDepth          int
	requestDelayMs    int
	userAgent         string
	respectRobots     bool
	discoverFeeds     bool
	savePages         bool
	outputDir         string
	validateHTML      bool
	timeoutSeconds    int
	adaptiveRate      bool
	concurrency       int
	followExternal    bool
	includePatterns   []string
	excludePatterns   []string
	generateSitemap   bool
	sitemapOutputPath string
	noTUI             bool
	outputJSON        bool
	outputCSV         bool
	outputFile        string
}

var flags cliFlags

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sitecrawl <url>",
		Short: "A polite, bounded, breadth-first web crawler.",
		Long: `sitecrawl crawls a site breadth-first from a seed URL, honoring
robots.txt, pacing requests adaptively, and reporting reachable pages
(with optional disk archival and sitemap generation).`,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to a YAML config file, merged under explicit flags")
	root.PersistentFlags().IntVar(&flags.maxPages, "max-pages", 0, "maximum pages to crawl (unset = config file or built-in default)")
	root.PersistentFlags().IntVar(&flags.maxDepth, "max-depth", 0, "maximum link depth from the seed (unset = config file or built-in default)")
	root.PersistentFlags().IntVar(&flags.requestDelayMs, "request-delay-ms", 0, "baseline delay between requests in milliseconds (unset = config file or built-in default)")
	root.PersistentFlags().StringVar(&flags.userAgent, "user-agent", "", "user agent string")
	root.PersistentFlags().BoolVar(&flags.respectRobots, "respect-robots", true, "honor robots.txt")
	root.PersistentFlags().BoolVar(&flags.discoverFeeds, "discover-feeds", true, "seed the frontier from sitemap.xml/RSS/Atom feeds")
	root.PersistentFlags().BoolVar(&flags.savePages, "save-pages", false, "save crawled pages to disk")
	root.PersistentFlags().StringVar(&flags.outputDir, "output-dir", "", "directory for saved pages (unset = config file or built-in default)")
	root.PersistentFlags().BoolVar(&flags.validateHTML, "validate-html", false, "log lightweight HTML validation findings")
	root.PersistentFlags().IntVar(&flags.timeoutSeconds, "timeout-seconds", 0, "per-request timeout in seconds (unset = config file or built-in default)")
	root.PersistentFlags().BoolVar(&flags.adaptiveRate, "adaptive-rate", true, "adapt request pacing to observed timeouts")
	root.PersistentFlags().IntVar(&flags.concurrency, "concurrency", 0, "number of concurrent fetch workers (unset = config file or built-in default)")
	root.PersistentFlags().BoolVar(&flags.followExternal, "follow-external", false, "follow links off the seed host")
	root.PersistentFlags().StringArrayVar(&flags.includePatterns, "include", nil, "only crawl URLs matching one of these regexps (repeatable)")
	root.PersistentFlags().StringArrayVar(&flags.excludePatterns, "exclude", nil, "never crawl URLs matching one of these regexps (repeatable)")
	root.PersistentFlags().BoolVar(&flags.generateSitemap, "generate-sitemap", true, "build a sitemap.xml from successfully crawled URLs")
	root.PersistentFlags().StringVar(&flags.sitemapOutputPath, "sitemap-output", "", "path to write sitemap.xml (unset = config file or built-in default sitemap.xml; an explicit empty value disables the disk write)")
	root.PersistentFlags().BoolVar(&flags.noTUI, "no-tui", false, "disable the interactive progress display")
	root.PersistentFlags().BoolVar(&flags.outputJSON, "json", false, "write results as JSON")
	root.PersistentFlags().BoolVar(&flags.outputCSV, "csv", false, "write results as CSV")
	root.PersistentFlags().StringVar(&flags.outputFile, "output", "", "write JSON/CSV output to file instead of stdout")

	root.AddCommand(newCrawlCmd())
	root.AddCommand(newSitemapCmd())
	return root
}

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a site and report reachable pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, args[0], false)
		},
	}
}

func newSitemapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sitemap <url>",
		Short: "Crawl a site and emit only its generated sitemap.xml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, args[0], true)
		},
	}
}

// buildOptions resolves CrawlOptions from defaults, an optional config
// file, and explicit flags — in that precedence order (flags win).
func buildOptions(cmd *cobra.Command, seedURL string, sitemapOnly bool) (crawler.CrawlOptions, error) {
	opts := crawler.DefaultOptions(seedURL)

	if flags.configFile != "" {
		file, err := config.Load(flags.configFile)
		if err != nil {
			return opts, err
		}
		opts = file.ApplyTo(opts)
	}

	set := cmd.Flags().Changed
	if set("max-pages") {
		opts.MaxPages = flags.maxPages
	}
	if set("max-depth") {
		opts.MaxDepth = flags.maxDepth
	}
	if set("request-delay-ms") {
		opts.RequestDelayMs = flags.requestDelayMs
	}
	if set("user-agent") {
		opts.UserAgent = flags.userAgent
	}
	if set("respect-robots") {
		opts.RespectRobotsTxt = flags.respectRobots
	}
	if set("discover-feeds") {
		opts.DiscoverFromSitemapAndRss = flags.discoverFeeds
	}
	if set("save-pages") {
		opts.SavePagesToDisk = flags.savePages
	}
	if set("output-dir") {
		opts.OutputDirectory = flags.outputDir
	}
	if set("validate-html") {
		opts.ValidateHTML = flags.validateHTML
	}
	if set("timeout-seconds") {
		opts.TimeoutSeconds = flags.timeoutSeconds
	}
	if set("adaptive-rate") {
		opts.UseAdaptiveRateLimiting = flags.adaptiveRate
	}
	if set("concurrency") {
		opts.MaxConcurrentRequests = flags.concurrency
	}
	if set("follow-external") {
		opts.FollowExternalLinks = flags.followExternal
	}
	if set("include") {
		opts.IncludePatterns = flags.includePatterns
	}
	if set("exclude") {
		opts.ExcludePatterns = flags.excludePatterns
	}
	if set("generate-sitemap") {
		opts.GenerateSitemap = flags.generateSitemap
	}
	if sitemapOnly {
		opts.GenerateSitemap = true
	}
	if set("sitemap-output") {
		opts.SitemapOutputPath = flags.sitemapOutputPath
	}

	opts.SeedURL = seedURL
	return opts, nil
}

func runCrawl(cmd *cobra.Command, rawURL string, sitemapOnly bool) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("invalid URL %q: must start with http:// or https://", rawURL)
	}

	opts, err := buildOptions(cmd, rawURL, sitemapOnly)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := crawler.New(opts, logger)
	defer func() { _ = orch.Close() }()

	report, err := runOrchestrator(ctx, cancel, orch, sitemapOnly)
	if err != nil {
		return err
	}

	if sitemapOnly {
		_, err := os.Stdout.Write(report.SitemapXML)
		return err
	}

	if flags.outputJSON || flags.outputCSV || flags.outputFile != "" {
		return writeStructuredOutput(report)
	}

	export.PrintSummary(os.Stdout, rowsFromReport(report))
	return nil
}

// runOrchestrator drives the crawl either through the Bubble Tea TUI or
// directly, depending on --no-tui.
func runOrchestrator(ctx context.Context, cancel context.CancelFunc, orch *crawler.Orchestrator, sitemapOnly bool) (*crawler.CrawlReport, error) {
	if flags.noTUI || sitemapOnly {
		return orch.Run(ctx)
	}

	tuiModel := tui.NewModel(ctx, cancel, orch)
	program := tea.NewProgram(tuiModel)

	finalModel, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("run tui: %w", err)
	}
	return finalModel.(tui.Model).GetReport(), nil
}

func rowsFromReport(report *crawler.CrawlReport) []export.Row {
	if report == nil {
		return nil
	}
	rows := make([]export.Row, 0, len(report.Results))
	for _, r := range report.Results {
		rows = append(rows, export.Row{
			ID:          r.ID,
			RequestPath: r.RequestPath,
			FoundURL:    r.FoundURL,
			Depth:       r.Depth,
			StatusCode:  r.StatusCode,
			ErrorCount:  len(r.Errors),
			LinkCount:   len(r.Links),
			ElapsedMs:   r.ElapsedMs,
		})
	}
	return rows
}

func writeStructuredOutput(report *crawler.CrawlReport) error {
	rows := rowsFromReport(report)

	writer := os.Stdout
	if flags.outputFile != "" {
		f, err := os.Create(flags.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				fmt.Fprintf(os.Stderr, "Error closing output file: %v\n", cerr)
			}
		}()
		writer = f
	}

	useJSON := flags.outputJSON || (!flags.outputCSV && flags.outputFile != "")
	if useJSON {
		return export.WriteJSON(writer, rows)
	}
	return export.WriteCSV(writer, rows)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
