package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/metrics"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// maxParallelLoads bounds the number of sources opened at once.
const maxParallelLoads = 8

// Loaded is an opened source and the root node built from it.
type Loaded struct {
	Source Source
	Root   *tree.Node
	// Doc is set for outline files.
	Doc *Document
	// DB is set for SQLite sources.
	DB *SQLiteSource
}

// Close releases the database handle of SQLite sources.
func (l *Loaded) Close() error {
	if l.DB != nil {
		return l.DB.Close()
	}
	return nil
}

// LoadResult is the outcome of loading one path.
type LoadResult struct {
	Path   string
	Loaded *Loaded
	Error  error
}

// Options controls how sources are opened.
type Options struct {
	// ReadOnly opens SQLite databases without write access.
	ReadOnly bool
}

// Open builds the root node for src.
func Open(ctx context.Context, src Source, opts Options) (*Loaded, error) {
	defer metrics.Timer(metrics.SourceLoad)()
	l := &Loaded{Source: src}
	switch src.Type {
	case SourceTypeDir:
		l.Root = NewDir(src.Path)
	case SourceTypeYAML, SourceTypeJSON:
		doc, root, err := LoadOutlineFile(src.Path)
		if err != nil {
			return nil, err
		}
		l.Doc, l.Root = doc, root
	case SourceTypeSQLite:
		db, err := OpenSQLite(ctx, src.Path, opts.ReadOnly)
		if err != nil {
			return nil, err
		}
		l.DB, l.Root = db, db.Root()
	default:
		return nil, fmt.Errorf("%s: %w", src.Type, ErrUnknownSource)
	}
	return l, nil
}

// LoadAll detects and opens every path concurrently, then attaches the
// resulting roots, in argument order, to a new root labelled label. Sources
// that fail are reported in the results and left out of the tree; an error
// is returned only when none could be loaded.
func LoadAll(ctx context.Context, label string, paths []string, opts Options) (*tree.Node, []LoadResult, error) {
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no sources given")
	}
	start := time.Now()
	results := make([]LoadResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range paths {
		g.Go(func() error {
			results[i].Path = path
			if err := ctx.Err(); err != nil {
				results[i].Error = err
				return nil
			}
			src, err := Detect(path)
			if err != nil {
				results[i].Error = err
				return nil
			}
			results[i].Loaded, results[i].Error = Open(ctx, src, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, results, err
	}

	// Nodes are only attached here, on the calling goroutine.
	root := tree.New(tree.Label(label))
	var errs []error
	for _, r := range results {
		if r.Error != nil {
			debug.Log("datasource: load %s: %v", r.Path, r.Error)
			errs = append(errs, fmt.Errorf("%s: %w", r.Path, r.Error))
			continue
		}
		if err := root.AddChild(r.Loaded.Root); err != nil {
			return nil, results, err
		}
	}
	debug.LogTiming("datasource.LoadAll", time.Since(start))
	if len(errs) == len(paths) {
		return nil, results, errors.Join(errs...)
	}
	return root, results, nil
}
