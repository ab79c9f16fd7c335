// Package config handles loading and saving tl configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/tl/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Bookmark is a named source offered by the picker.
type Bookmark struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// SearchConfig controls type-ahead search.
type SearchConfig struct {
	CaseSensitive bool          `yaml:"case_sensitive,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"` // Prefix reset after this much idle time
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	ShowLines  bool    `yaml:"show_lines"`
	DetailPane bool    `yaml:"detail_pane"`
	SplitRatio float64 `yaml:"split_ratio,omitempty"` // Tree width share when the detail pane is open (0.2-0.8)
	Theme      string  `yaml:"theme,omitempty"`       // auto, dark, light
	// ConfirmDelete asks before deleting nodes.
	ConfirmDelete bool `yaml:"confirm_delete"`
}

// WatchConfig controls reloading of directories that change on disk.
type WatchConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Debounce  time.Duration `yaml:"debounce,omitempty"`
	ForcePoll bool          `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration for tl.
type Config struct {
	ShowRoot         bool           `yaml:"show_root"`
	ShowRootExpander bool           `yaml:"show_root_expander"`
	AllowDropOrder   bool           `yaml:"allow_drop_order"`
	ReadOnly         bool           `yaml:"read_only,omitempty"` // Open databases read-only
	Search           SearchConfig   `yaml:"search,omitempty"`
	UI               UIConfig       `yaml:"ui,omitempty"`
	Watch            WatchConfig    `yaml:"watch,omitempty"`
	Bookmarks        []Bookmark     `yaml:"bookmarks,omitempty"`
	Favorites        map[int]string `yaml:"favorites,omitempty"` // Number key (1-9) -> bookmark name
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AllowDropOrder: true,
		Search: SearchConfig{
			Timeout: 1500 * time.Millisecond,
		},
		UI: UIConfig{
			ShowLines:  true,
			DetailPane: true,
			SplitRatio: 0.6,
			Theme:      "auto",

			ConfirmDelete: true,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
		Favorites: make(map[int]string),
	}
}

// ErrInvalidConfig is wrapped by every Validate error.
var ErrInvalidConfig = errors.New("invalid config")

// Validate reports settings that are out of range.
func (c Config) Validate() error {
	var errs []error
	if c.Search.Timeout < 0 {
		errs = append(errs, fmt.Errorf("search.timeout must not be negative, got %s", c.Search.Timeout))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if r := c.UI.SplitRatio; r != 0 && (r < 0.2 || r > 0.8) {
		errs = append(errs, fmt.Errorf("ui.split_ratio must be within 0.2-0.8, got %g", r))
	}
	switch c.UI.Theme {
	case "", "auto", "dark", "light":
	default:
		errs = append(errs, fmt.Errorf("ui.theme must be auto, dark or light, got %q", c.UI.Theme))
	}
	for n := range c.Favorites {
		if n < 1 || n > 9 {
			errs = append(errs, fmt.Errorf("favorite key %d is not within 1-9", n))
		}
	}
	for _, b := range c.Bookmarks {
		if b.Name == "" || b.Path == "" {
			errs = append(errs, fmt.Errorf("bookmark %q needs a name and a path", b.Name+b.Path))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ConfigDir returns the XDG config directory for tl.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tl")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// Ensure favorites map is initialized
	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}

	// Expand ~ in bookmark paths
	for i := range cfg.Bookmarks {
		cfg.Bookmarks[i].Path = expandHome(cfg.Bookmarks[i].Path)
	}

	return cfg, cfg.Validate()
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FindBookmark returns the bookmark with the given name, or nil.
func (c Config) FindBookmark(name string) *Bookmark {
	for i := range c.Bookmarks {
		if strings.EqualFold(c.Bookmarks[i].Name, name) {
			return &c.Bookmarks[i]
		}
	}
	return nil
}

// FavoriteBookmark returns the bookmark assigned to number key n (1-9), or nil.
func (c Config) FavoriteBookmark(n int) *Bookmark {
	name, ok := c.Favorites[n]
	if !ok {
		return nil
	}
	return c.FindBookmark(name)
}

// SetFavorite assigns a bookmark name to a number key (1-9).
func (c *Config) SetFavorite(n int, name string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if name == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = name
	}
}

// AddBookmark records path under name, replacing a bookmark of the same name.
func (c *Config) AddBookmark(name, path string) {
	if b := c.FindBookmark(name); b != nil {
		b.Path = path
		return
	}
	c.Bookmarks = append(c.Bookmarks, Bookmark{Name: name, Path: path})
}

// ResolvedPath returns the bookmark path with ~ expanded.
func (b Bookmark) ResolvedPath() string {
	return expandHome(b.Path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
