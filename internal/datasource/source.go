// Package datasource provides node kinds backed by real data for treelist:
// YAML and JSON outline files, lazily read directories and outlines stored
// in SQLite. It also detects which kind of source a path is and loads several
// sources at once under one invisible root.
package datasource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeDir is a directory browsed lazily
	SourceTypeDir SourceType = "dir"
	// SourceTypeYAML is a YAML outline file
	SourceTypeYAML SourceType = "yaml"
	// SourceTypeJSON is a JSON outline file
	SourceTypeJSON SourceType = "json"
	// SourceTypeSQLite is a SQLite outline database
	SourceTypeSQLite SourceType = "sqlite"
)

// ErrUnknownSource is returned by Detect for paths no node kind can show.
var ErrUnknownSource = errors.New("unknown source type")

var sqliteMagic = []byte("SQLite format 3\x00")

// Source is a path together with the way it is loaded.
type Source struct {
	Type    SourceType `json:"type"`
	Path    string     `json:"path"`
	ModTime time.Time  `json:"mod_time"`
	Size    int64      `json:"size"`
	// Valid and ValidationError are set by ValidateSource.
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
}

// String returns a human-readable description of the source
func (s Source) String() string {
	status := "valid"
	if !s.Valid {
		status = "unchecked"
		if s.ValidationError != "" {
			status = fmt.Sprintf("invalid: %s", s.ValidationError)
		}
	}
	return fmt.Sprintf("%s (%s, mod=%s, %s)", s.Path, s.Type, s.ModTime.Format(time.RFC3339), status)
}

// Detect picks the source type of path from its extension, falling back to
// sniffing the SQLite header.
func Detect(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	src := Source{Path: path, ModTime: info.ModTime(), Size: info.Size()}
	if info.IsDir() {
		src.Type = SourceTypeDir
		return src, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		src.Type = SourceTypeYAML
	case ".json":
		src.Type = SourceTypeJSON
	case ".db", ".sqlite", ".sqlite3":
		src.Type = SourceTypeSQLite
	default:
		if !hasSQLiteHeader(path) {
			return Source{}, fmt.Errorf("%s: %w", path, ErrUnknownSource)
		}
		src.Type = SourceTypeSQLite
	}
	return src, nil
}

func hasSQLiteHeader(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, sqliteMagic)
}

// ValidateSource checks that the source can be opened and records the
// outcome on s.
func ValidateSource(s *Source) error {
	err := validate(s)
	s.Valid = err == nil
	s.ValidationError = ""
	if err != nil {
		s.ValidationError = err.Error()
	}
	return err
}

func validate(s *Source) error {
	switch s.Type {
	case SourceTypeDir:
		_, err := os.ReadDir(s.Path)
		return err
	case SourceTypeYAML, SourceTypeJSON:
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return err
		}
		_, err = ParseOutline(data, Format(s.Type))
		return err
	case SourceTypeSQLite:
		return validateSQLite(s.Path)
	}
	return fmt.Errorf("%s: %w", s.Type, ErrUnknownSource)
}

// DiscoverSources lists the outline files and databases directly inside
// dir, newest first. Dotfiles and subdirectories are skipped.
func DiscoverSources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var sources []Source
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		src, err := Detect(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Path < sources[j].Path
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
	return sources, nil
}
