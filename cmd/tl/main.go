package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vanderheijden86/treelist/internal/datasource"
	"github.com/vanderheijden86/treelist/pkg/config"
	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/metrics"
	"github.com/vanderheijden86/treelist/pkg/treeview"
	"github.com/vanderheijden86/treelist/pkg/ui"
	"github.com/vanderheijden86/treelist/pkg/version"
	"github.com/vanderheijden86/treelist/pkg/watcher"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Read configuration from this file instead of ~/.config/tl/config.yaml")
	open := flag.String("open", "", "Open a bookmark by name or favorite number (1-9)")
	bookmark := flag.String("bookmark", "", "Save the given paths as a bookmark with this name and exit")
	showRoot := flag.Bool("show-root", false, "Show the root row")
	showRootExpander := flag.Bool("show-root-expander", false, "Allow collapsing the root row")
	noLines := flag.Bool("no-lines", false, "Do not draw guide lines")
	noDetail := flag.Bool("no-detail", false, "Start with the detail pane closed")
	noWatch := flag.Bool("no-watch", false, "Do not reload directories that change on disk")
	readOnly := flag.Bool("read-only", false, "Open databases read-only")
	caseSensitive := flag.Bool("case-sensitive", false, "Make type-ahead search case sensitive")
	theme := flag.String("theme", "", "Color theme: auto, dark or light")
	flag.Parse()

	if *help {
		fmt.Println("Usage: tl [options] [path ...]")
		fmt.Println("\nBrowse directories, YAML/JSON outlines and SQLite outlines as a tree.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("tl %s\n", version.Version)
		os.Exit(0)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		cfg = config.DefaultConfig()
	}

	// Flags that were given override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "show-root":
			cfg.ShowRoot = *showRoot
		case "show-root-expander":
			cfg.ShowRootExpander = *showRootExpander
		case "no-lines":
			cfg.UI.ShowLines = !*noLines
		case "no-detail":
			cfg.UI.DetailPane = !*noDetail
		case "no-watch":
			cfg.Watch.Enabled = !*noWatch
		case "read-only":
			cfg.ReadOnly = *readOnly
		case "case-sensitive":
			cfg.Search.CaseSensitive = *caseSensitive
		case "theme":
			cfg.UI.Theme = *theme
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	paths := flag.Args()
	if *bookmark != "" {
		if err := saveBookmark(cfg, *configPath, *bookmark, paths); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Bookmarked %s\n", *bookmark)
		os.Exit(0)
	}
	if *open != "" {
		b := resolveBookmark(cfg, *open)
		if b == nil {
			fmt.Fprintf(os.Stderr, "Error: no bookmark %q\n", *open)
			os.Exit(2)
		}
		paths = append(paths, b.ResolvedPath())
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: tl needs an interactive terminal")
		os.Exit(1)
	}

	if len(paths) == 0 {
		picked, err := pickSource(cfg)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				os.Exit(0)
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		paths = []string{picked}
	}

	if err := run(cfg, paths); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if debug.Enabled() && metrics.Enabled() {
		_ = metrics.WriteReport(os.Stderr)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func saveBookmark(cfg config.Config, configPath, name string, paths []string) error {
	if len(paths) != 1 {
		return fmt.Errorf("--bookmark needs exactly one path, got %d", len(paths))
	}
	abs, err := filepath.Abs(paths[0])
	if err != nil {
		return err
	}
	if _, err := datasource.Detect(abs); err != nil {
		return err
	}
	cfg.AddBookmark(name, abs)
	if configPath != "" {
		return config.SaveTo(cfg, configPath)
	}
	return config.Save(cfg)
}

func resolveBookmark(cfg config.Config, name string) *config.Bookmark {
	if n, err := strconv.Atoi(name); err == nil {
		return cfg.FavoriteBookmark(n)
	}
	return cfg.FindBookmark(name)
}

// pickSource asks for a source among the bookmarks and the outlines found
// in the working directory. The working directory itself is always offered.
func pickSource(cfg config.Config) (string, error) {
	var options []huh.Option[string]
	for _, b := range cfg.Bookmarks {
		options = append(options, huh.NewOption(fmt.Sprintf("★ %s  %s", b.Name, b.ResolvedPath()), b.ResolvedPath()))
	}
	sources, err := datasource.DiscoverSources(".")
	if err != nil {
		debug.Log("tl: discover sources: %v", err)
	}
	for _, s := range sources {
		options = append(options, huh.NewOption(fmt.Sprintf("%s  (%s)", filepath.Base(s.Path), s.Type), s.Path))
	}
	options = append(options, huh.NewOption(".  (this directory)", "."))

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Open which source?").
				Options(options...).
				Value(&choice),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func run(cfg config.Config, paths []string) error {
	ctx := context.Background()
	label := "tl"
	if len(paths) == 1 {
		label = filepath.Base(paths[0])
	}
	root, results, err := datasource.LoadAll(ctx, label, paths, datasource.Options{ReadOnly: cfg.ReadOnly})
	for _, r := range results {
		if r.Loaded != nil {
			defer r.Loaded.Close()
		}
		if r.Error != nil && err == nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", r.Path, r.Error)
		}
	}
	if err != nil {
		return err
	}

	vopts := treeview.DefaultOptions()
	vopts.ShowRoot = cfg.ShowRoot
	vopts.ShowRootExpander = cfg.ShowRootExpander
	vopts.ShowLines = cfg.UI.ShowLines
	vopts.AllowDropOrder = cfg.AllowDropOrder
	vopts.CaseSensitiveSearch = cfg.Search.CaseSensitive
	if cfg.Search.Timeout > 0 {
		vopts.SearchTimeout = cfg.Search.Timeout
	}
	v, err := treeview.New(root, vopts)
	if err != nil {
		return err
	}

	opts := ui.Options{
		Title:         strings.Join(paths, ", "),
		ShowLines:     cfg.UI.ShowLines,
		DetailPane:    cfg.UI.DetailPane,
		SplitRatio:    cfg.UI.SplitRatio,
		ConfirmDelete: cfg.UI.ConfirmDelete,
		Save:          func() error { return saveDocuments(results) },
		Dirty:         func() bool { return anyDirty(results) },
		ReloadDirs: func(changed []string) error {
			var errs []error
			for _, p := range changed {
				if n := datasource.FindDir(root, p); n != nil {
					if err := datasource.Reload(n); err != nil {
						errs = append(errs, err)
					}
				}
			}
			return errors.Join(errs...)
		},
		LoadedDirs: func() []string { return datasource.LoadedDirs(root) },
	}

	if cfg.Watch.Enabled {
		w, err := watcher.NewWatcher(datasource.LoadedDirs(root),
			watcher.WithDebounceDuration(cfg.Watch.Debounce),
			watcher.WithForcePoll(cfg.Watch.ForcePoll),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			// Non-fatal: browse without live reload
			debug.Log("tl: watcher disabled: %v", err)
		} else {
			defer w.Stop()
			opts.Watcher = w
		}
	}

	r := lipgloss.NewRenderer(os.Stdout)
	m := ui.NewTreeModel(v, ui.ThemeFor(r, cfg.UI.Theme), opts)
	defer m.Close()

	if err := runTUIProgram(m); err != nil {
		return fmt.Errorf("running tl: %w", err)
	}
	if anyDirty(results) {
		fmt.Fprintln(os.Stderr, "Warning: unsaved changes were discarded (ctrl+s saves)")
	}
	return nil
}

func saveDocuments(results []datasource.LoadResult) error {
	var errs []error
	for _, r := range results {
		if r.Loaded == nil || r.Loaded.Doc == nil || !r.Loaded.Doc.Dirty() {
			continue
		}
		if err := r.Loaded.Doc.Save(r.Loaded.Root); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Path, err))
		}
	}
	return errors.Join(errs...)
}

func anyDirty(results []datasource.LoadResult) bool {
	for _, r := range results {
		if r.Loaded != nil && r.Loaded.Doc != nil && r.Loaded.Doc.Dirty() {
			return true
		}
	}
	return false
}

func runTUIProgram(m tea.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TL_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TL_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
