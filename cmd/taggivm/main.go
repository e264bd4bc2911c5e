package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"taggivm/internal/app"
	"taggivm/internal/catalog"
	"taggivm/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp loads the config and creates a TaggivmApp. The caller must defer app.Close().
func newApp(cmd *cobra.Command) (*app.TaggivmApp, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewTaggivmApp(cfg, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "taggivm",
	Short:        "Music library cataloguer",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["music_dir"], defaults["base_dir"])
		cfg.Database.Path = defaults["database_path"]

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Music Dir: %s\n", cfg.MusicDir)
		fmt.Printf("Database:  %s\n", cfg.Database.Path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := app.LoadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Music Dir: %s\n", cfg.MusicDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Marker:    %s\n", cfg.MarkerName)
		fmt.Printf("Database:  %s %s\n", cfg.Database.Type, cfg.Database.Path)
		if len(cfg.Filesystem.Ignore) > 0 {
			fmt.Printf("Ignore:    %s\n", strings.Join(cfg.Filesystem.Ignore, ", "))
		}
		return nil
	},
}

// init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create and seed the catalog database",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := app.LoadConfig()
		if err != nil {
			return err
		}

		confirm := func(prompt string) (bool, error) {
			return app.Confirm(os.Stdin, os.Stdout, prompt)
		}
		if err := app.InitDatabase(cfg, force, confirm); err != nil {
			if errors.Is(err, app.ErrInitAborted) {
				fmt.Println("Aborted.")
				return nil
			}
			return err
		}

		fmt.Printf("Database initialized at %s\n", cfg.Database.Path)
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover and ingest new album folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Scan(dryRun)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		printReport(report, dryRun)

		if n := len(report.Failed()); n > 0 {
			return fmt.Errorf("%d album(s) failed, see run %s", n, a.OperationID())
		}
		return nil
	},
}

func printReport(report *catalog.IngestReport, dryRun bool) {
	for _, d := range report.Skipped {
		if d.Kind == catalog.DiagnosticAlreadyIngested {
			continue
		}
		fmt.Printf("warning: %s\n", d)
	}

	if len(report.Results) == 0 {
		fmt.Println("No new albums found.")
		return
	}

	if dryRun {
		fmt.Printf("%d album(s) to initialize:\n", len(report.Results))
	}
	for _, r := range report.Results {
		switch {
		case r.Err != nil && r.AlbumID != 0:
			fmt.Printf("WARN  %s  #%d  %d track(s)  %v\n", r.Path, r.AlbumID, r.Tracks, r.Err)
		case r.Err != nil:
			fmt.Printf("FAIL  %s  %v\n", r.Path, r.Err)
		case dryRun:
			fmt.Printf("NEW   %s  %d track(s)\n", r.Path, r.Tracks)
		default:
			fmt.Printf("OK    %s  #%d  %d track(s)\n", r.Path, r.AlbumID, r.Tracks)
		}
	}

	if !dryRun {
		fmt.Printf("Ingested %d album(s), %d failed\n", len(report.Succeeded()), len(report.Failed()))
	}
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View ingest run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No ingest runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				d := r.FinishedAt.Time.Sub(r.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %s  %s  %-8s  +%d !%d ~%d  %s\n",
				r.ID,
				r.RunID,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				r.AlbumsIngested,
				r.AlbumsFailed,
				r.FoldersSkipped,
				duration,
			)
		}
		return nil
	},
}

// genres command
var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "View the genre tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tree, err := a.GetGenreTree()
		if err != nil {
			return err
		}
		for _, node := range tree {
			printGenre(node, 0)
		}
		return nil
	},
}

func printGenre(node *catalog.GenreNode, depth int) {
	fmt.Printf("%s%s\n", strings.Repeat("  ", depth), node.Genre.Name)
	for _, child := range node.Children {
		printGenre(child, depth+1)
	}
}

// sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "View metadata sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sources, err := a.GetSources()
		if err != nil {
			return err
		}
		for _, s := range sources {
			fmt.Printf("%-16s %s\n", s.Name, s.BaseURL)
		}
		return nil
	},
}

// albums command
var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List catalogued albums",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		albums, err := a.ListAlbums(status)
		if err != nil {
			return err
		}

		if len(albums) == 0 {
			fmt.Println("No albums catalogued.")
			return nil
		}

		for _, al := range albums {
			fmt.Printf("#%d  %-8s  %s - %s (%s)  %d track(s)\n",
				al.ID,
				al.MetadataStatus,
				al.AlbumArtist,
				al.Title,
				al.ReleaseYear,
				al.TotalTracks,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "Replace an existing database without asking")
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("dry-run", false, "Show what would be ingested without writing")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(genresCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(albumsCmd)
	albumsCmd.Flags().String("status", "", "Filter by metadata status (pending or complete)")
}
