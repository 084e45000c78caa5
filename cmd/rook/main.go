package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rookhook/rook/internal/config"
	"github.com/rookhook/rook/internal/hook"
	"github.com/rookhook/rook/internal/journal"
	"github.com/rookhook/rook/internal/launch"
	"github.com/rookhook/rook/internal/log"
	"github.com/rookhook/rook/internal/tui/watch"
	"github.com/rookhook/rook/internal/webhook"
)

const version = "0.2.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "check":
		os.Exit(runCheck(args))
	case "journal":
		os.Exit(runJournal(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("rook version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		// `rook <config.toml>` is the classic invocation.
		if !strings.HasPrefix(cmd, "-") {
			os.Exit(runStart(os.Args[1:]))
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`rook - webhook listener that runs scripts

Usage:
  rook <config.toml>            Start the server (shorthand for 'rook start')
  rook start <config.toml>      Start the server in the foreground
  rook check <config.toml>      Validate the configuration and print the route table
  rook journal <config.toml>    Print recent dispatch journal entries
  rook watch <config.toml>      Live TUI over the dispatch journal

General:
  version                       Show version information
  help                          Show this help message
`)
}

// configArg extracts the single positional config path from args, parsing
// any flags registered on fs first.
func configArg(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one config file argument")
	}
	return fs.Arg(0), nil
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath, err := configArg(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: rook start <config.toml>\n")
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("rook starting", "version", version, "config", configPath, "fingerprint", cfg.Fingerprint)

	hooks, err := config.BuildHooks(cfg, configPath)
	if err != nil {
		logger.Error("failed to load hooks", "error", err)
		return 1
	}

	table, err := hook.BuildTable(hooks)
	if err != nil {
		logger.Error("failed to build route table", "error", err)
		return 1
	}
	logger.Info("route table built", "paths", len(table.Paths()), "hooks", table.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var jnl *journal.Journal
	if cfg.Journal.Path != "" {
		jnl, err = journal.Open(ctx, cfg.Journal.Path)
		if err != nil {
			logger.Error("failed to open journal", "path", cfg.Journal.Path, "error", err)
			return 1
		}
		defer jnl.Close()
		logger.Info("journal opened", "path", cfg.Journal.Path)
	}

	server := webhook.New(cfg.ListenAddr(), table, launch.NewDetached(), jnl, log.WithComponent("webhook"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()

	logger.Info("rook running", "listen", cfg.ListenAddr())

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("server failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("rook stopped")
	return 0
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath, err := configArg(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: rook check <config.toml>\n")
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
		return 1
	}

	hooks, err := config.BuildHooks(cfg, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
		return 1
	}

	table, err := hook.BuildTable(hooks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
		return 1
	}

	fmt.Printf("Config check PASSED: %s\n", configPath)
	fmt.Printf("Fingerprint: %s\n", cfg.Fingerprint)
	fmt.Printf("Listen:      %s\n", cfg.ListenAddr())
	if cfg.Journal.Path != "" {
		fmt.Printf("Journal:     %s\n", cfg.Journal.Path)
	}

	for _, path := range table.Paths() {
		routed, _ := table.Route(path)
		fmt.Printf("  %s  [%s]  %d hook(s)\n", path, routed[0].Type, len(routed))
		for _, h := range routed {
			switch h.Type {
			case hook.TypeGitHub:
				events := make([]string, 0, len(h.Events))
				for e := range h.Events {
					events = append(events, e)
				}
				sort.Strings(events)
				fmt.Printf("    repo=%s events=%s command=%s\n", h.Repo, strings.Join(events, ","), h.Command)
			default:
				fmt.Printf("    command=%s\n", h.Command)
			}
		}
	}

	return 0
}

func runJournal(args []string) int {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	limit := fs.Int("n", 20, "Number of entries to show")
	configPath, err := configArg(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: rook journal [-n N] <config.toml>\n")
		return 1
	}

	jnl, ok := openJournal(configPath)
	if !ok {
		return 1
	}
	defer jnl.Close()

	entries, err := jnl.Recent(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read journal: %v\n", err)
		return 1
	}

	if len(entries) == 0 {
		fmt.Println("Journal is empty.")
		return 0
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-7s  %-6s  %s", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Outcome, e.HookType, e.URL)
		if e.Repo != "" {
			line += fmt.Sprintf("  %s/%s", e.Repo, e.Event)
		}
		line += "  " + e.Command
		if e.Error != "" {
			line += "  (" + e.Error + ")"
		}
		fmt.Println(line)
	}
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	configPath, err := configArg(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: rook watch <config.toml>\n")
		return 1
	}

	jnl, ok := openJournal(configPath)
	if !ok {
		return 1
	}
	defer jnl.Close()

	p := tea.NewProgram(watch.New(jnl))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Watch failed: %v\n", err)
		return 1
	}
	return 0
}

// openJournal loads the config at configPath and opens its journal,
// printing usage errors itself.
func openJournal(configPath string) (*journal.Journal, bool) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, false
	}
	if cfg.Journal.Path == "" {
		fmt.Fprintf(os.Stderr, "No [journal] path configured in %s\n", configPath)
		return nil, false
	}

	jnl, err := journal.Open(context.Background(), cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open journal: %v\n", err)
		return nil, false
	}
	return jnl, true
}
