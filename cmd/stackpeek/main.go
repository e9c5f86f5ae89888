package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackpeek/stackpeek/internal/config"
	"github.com/stackpeek/stackpeek/internal/history"
	"github.com/stackpeek/stackpeek/internal/hunt"
	"github.com/stackpeek/stackpeek/internal/identity"
	"github.com/stackpeek/stackpeek/internal/server"
	"github.com/stackpeek/stackpeek/internal/state"
	"github.com/stackpeek/stackpeek/internal/tree"
	"github.com/stackpeek/stackpeek/pkg/models"
)

var (
	version   = "dev"
	cfgFile   string
	logFormat string
	logLevel  string
	logger    *slog.Logger
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "stackpeek",
		Short: "stackpeek — see what your stack deployed, and what it left behind",
		Long:  "Visualize SST/Pulumi state as navigable resource trees and hunt for orphaned cloud resources.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLogLevel(logLevel)
			if err != nil {
				return err
			}
			opts := &slog.HandlerOptions{Level: level}
			switch logFormat {
			case "json":
				logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
			case "text":
				logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
			default:
				return fmt.Errorf("invalid --log-format %q (use: text, json)", logFormat)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./stackpeek.yaml)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text, json)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		treeCmd(),
		metaCmd(),
		huntCmd(),
		historyCmd(),
		serveCmd(),
		versionCmd(),
		completionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}
	return cfg
}

// openSource resolves the declared-state source from config: explicit S3
// object, explicit local file, or workspace discovery, in that order.
func openSource(ctx context.Context, cfg *config.Config) (state.Source, error) {
	if cfg.State.S3 != "" {
		return state.NewS3Source(ctx, cfg.State.S3)
	}
	if cfg.State.Path != "" {
		return &state.FileSource{Path: cfg.State.Path}, nil
	}
	path, err := state.Discover(cfg.State.Dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered state file", "path", path)
	return &state.FileSource{Path: path}, nil
}

// --- tree ---

func treeCmd() *cobra.Command {
	var mode string
	var search string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Render the declared resource hierarchy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			source, err := openSource(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("nothing to render: %w", err)
			}
			snap, err := source.Read(cmd.Context())
			if err != nil {
				return fmt.Errorf("nothing to render: %w", err)
			}

			if mode != string(tree.ModeTree) && mode != string(tree.ModeCategorized) {
				return fmt.Errorf("invalid --mode %q (use: tree, categorized)", mode)
			}

			matched := tree.MatchKeys(snap.Resources, search)
			forest := tree.Build(snap.Resources, matched, tree.Mode(mode))

			if len(forest.Groups) == 0 {
				fmt.Println("No resources to show.")
			}
			for _, group := range forest.Groups {
				fmt.Printf("%s\n", group.Type)
				for i, node := range group.Nodes {
					printNode(node, "", i == len(group.Nodes)-1)
				}
				fmt.Println()
			}
			for _, w := range forest.Warnings {
				fmt.Printf("warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(tree.ModeCategorized), "grouping mode (tree, categorized)")
	cmd.Flags().StringVar(&search, "search", "", "filter resources by substring")
	return cmd
}

func printNode(n *models.TreeNode, prefix string, isLast bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if isLast {
		connector = "└── "
		childPrefix = prefix + "    "
	}

	marker := ""
	if !n.IsMatch {
		marker = " (dimmed)"
	}
	fmt.Printf("%s%s%s  [%s]%s\n", prefix, connector,
		identity.DisplayID(n.Resource), identity.SimpleType(n.Resource.Type), marker)

	visible := make([]*models.TreeNode, 0, len(n.Children))
	for _, c := range n.Children {
		if c.IsVisible {
			visible = append(visible, c)
		}
	}
	for i, c := range visible {
		printNode(c, childPrefix, i == len(visible)-1)
	}
}

// --- meta ---

func metaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta",
		Short: "Show state snapshot metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			source, err := openSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			snap, err := source.Read(cmd.Context())
			if err != nil {
				return err
			}

			meta := state.InferMetadata(snap)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "App:\t%s\n", meta.App)
			_, _ = fmt.Fprintf(w, "Stage:\t%s\n", meta.Stage)
			_, _ = fmt.Fprintf(w, "Region:\t%s\n", meta.Region)
			_, _ = fmt.Fprintf(w, "Account:\t%s\n", meta.Account)
			_, _ = fmt.Fprintf(w, "Resources:\t%d\n", len(snap.Resources))
			return w.Flush()
		},
	}
}

// --- hunt ---

func huntCmd() *cobra.Command {
	var app, stage, region, output string
	var export bool

	cmd := &cobra.Command{
		Use:   "hunt",
		Short: "Find cloud resources missing from the declared state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			if app == "" {
				app = cfg.Hunt.App
			}
			if stage == "" {
				stage = cfg.Hunt.Stage
			}
			if region == "" {
				region = cfg.Hunt.Region
			}

			// A missing workspace degrades the scan instead of blocking it.
			source, err := openSource(cmd.Context(), cfg)
			if err != nil {
				source = state.None
			}

			fetcher, err := hunt.NewAWSFetcher(cmd.Context(), region)
			if err != nil {
				return err
			}

			var log *history.Store
			if store, err := history.Open(cfg.History.Path); err != nil {
				logger.Warn("hunt history unavailable", "error", err)
			} else if err := store.Init(cmd.Context()); err != nil {
				logger.Warn("hunt history unavailable", "error", err)
				_ = store.Close()
			} else {
				log = store
				defer store.Close() //nolint:errcheck // best-effort cleanup
			}

			hunter := hunt.NewHunter(source, fetcher, log, logger)
			result, err := hunter.Run(cmd.Context(), app, stage, region)
			if err != nil {
				return err
			}

			printScanResult(result)

			if export || output != "" {
				path := output
				if path == "" {
					path = defaultExportName(app, stage)
				}
				if err := writeOrphansFile(path, result); err != nil {
					return err
				}
				fmt.Printf("Wrote %d orphans to %s\n", len(result.Orphans), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&app, "app", "", "app tag filter ('*' for any; default from config)")
	cmd.Flags().StringVar(&stage, "stage", "", "stage tag filter ('*' for any; default from config)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region to scan (default from config or credentials)")
	cmd.Flags().BoolVar(&export, "export", false, "write orphans to a JSON file using the default name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write orphans to this JSON file")
	return cmd
}

func printScanResult(result models.ScanResult) {
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Printf("Scanned %d tagged resources, %d declared identities, %d orphans\n",
		result.TotalFound, result.ManagedCount, len(result.Orphans))

	if len(result.Orphans) == 0 {
		return
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tARN")
	for _, o := range result.Orphans {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", o.Name, o.Type, o.ARN)
	}
	_ = w.Flush()
}

func defaultExportName(app, stage string) string {
	if app == "" || app == hunt.Wildcard {
		app = "all"
	}
	if stage == "" || stage == hunt.Wildcard {
		stage = "all"
	}
	return fmt.Sprintf("stackpeek-orphans-%s-%s.json", app, stage)
}

func writeOrphansFile(path string, result models.ScanResult) error {
	orphans := result.Orphans
	if orphans == nil {
		orphans = []models.Orphan{}
	}
	data, err := json.MarshalIndent(orphans, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding orphans: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// --- history ---

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past hunt runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // best-effort cleanup
			if err := store.Init(cmd.Context()); err != nil {
				return err
			}

			hunts, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(hunts) == 0 {
				fmt.Println("No hunts recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tAPP\tSTAGE\tSTARTED\tFOUND\tMANAGED\tORPHANS\tSTATUS")
			for _, h := range hunts {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					h.ID, h.App, h.Stage, h.StartedAt.Format("2006-01-02 15:04"),
					h.TotalFound, h.ManagedCount, h.OrphanCount, h.Status)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var listen string
	var readOnly bool
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web UI and API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			if listen == "" {
				listen = cfg.Server.Listen
			}

			source, err := openSource(cmd.Context(), cfg)
			if err != nil {
				logger.Warn("no declared state found; UI will show an empty stack", "error", err)
				source = state.None
			}

			var log *history.Store
			if store, err := history.Open(cfg.History.Path); err != nil {
				logger.Warn("hunt history unavailable", "error", err)
			} else if err := store.Init(cmd.Context()); err != nil {
				logger.Warn("hunt history unavailable", "error", err)
				_ = store.Close()
			} else {
				log = store
			}

			newFetcher := func(ctx context.Context, region string) (hunt.TagFetcher, error) {
				return hunt.NewAWSFetcher(ctx, region)
			}

			srv := server.New(source, newFetcher, log, cfg.Hunt, logger, listen,
				readOnly || cfg.Server.ReadOnly, cfg.Server.APIToken, cfg.Server.CORSOrigin)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if open {
				go func() {
					time.Sleep(300 * time.Millisecond)
					url := "http://localhost" + listen
					if !strings.HasPrefix(listen, ":") {
						url = "http://" + listen
					}
					if err := openBrowser(url); err != nil {
						logger.Warn("opening browser", "error", err)
					}
				}()
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				if log != nil {
					_ = log.Close()
				}
			}()

			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config or :7700)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "disable hunt triggers via API")
	cmd.Flags().BoolVar(&open, "open", false, "open the UI in a browser after startup")
	return cmd
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// --- version ---

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("stackpeek %s\n", version)
		},
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (use: debug, info, warn, error)", s)
	}
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion scripts",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
