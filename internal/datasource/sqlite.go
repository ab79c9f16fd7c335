package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id        INTEGER PRIMARY KEY,
	parent_id INTEGER REFERENCES nodes(id),
	text      TEXT NOT NULL,
	note      TEXT NOT NULL DEFAULT '',
	position  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS nodes_parent ON nodes(parent_id, position);
`

// SQLiteSource is an outline stored in a SQLite database, one row per node.
type SQLiteSource struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// OpenSQLite opens (and, unless readOnly, creates) the outline database at
// path.
func OpenSQLite(ctx context.Context, path string, readOnly bool) (*SQLiteSource, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	if readOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&_journal_mode=WAL", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// One connection keeps writes from the UI thread ordered.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot open database %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			debug.Log("datasource: %s: %v", pragma, err)
		}
	}

	s := &SQLiteSource{db: db, path: path, readOnly: readOnly}
	if !readOnly {
		if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteSource) Path() string { return s.path }

// CountNodes returns the number of stored nodes.
func (s *SQLiteSource) CountNodes(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Root returns a lazy node standing for the whole database. Its children are
// the rows without a parent.
func (s *SQLiteSource) Root() *tree.Node {
	n := tree.New(&SQLiteNode{src: s, text: filepath.Base(s.path), hasChildren: true})
	_ = n.SetLazyLoading(true)
	return n
}

// Import appends outlines as top-level rows.
func (s *SQLiteSource) Import(ctx context.Context, entries []*Outline) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM nodes WHERE parent_id IS NULL").Scan(&next); err != nil {
		return err
	}
	for i, o := range entries {
		if _, err := insertOutline(ctx, tx, sql.NullInt64{}, next+i, o); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertOutline(ctx context.Context, tx *sql.Tx, parent sql.NullInt64, pos int, o *Outline) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO nodes (parent_id, text, note, position) VALUES (?, ?, ?, ?)",
		parent, o.Text, o.Note, pos)
	if err != nil {
		return 0, fmt.Errorf("insert %q: %w", o.Text, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for i, c := range o.Children {
		if _, err := insertOutline(ctx, tx, sql.NullInt64{Int64: id, Valid: true}, i, c); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// SQLiteNode is the kind of nodes read from a SQLiteSource. The zero id
// stands for the database itself.
type SQLiteNode struct {
	src         *SQLiteSource
	id          int64
	text        string
	note        string
	hasChildren bool
}

func (k *SQLiteNode) Text() string { return k.text }

// Note returns the row's note column.
func (k *SQLiteNode) Note() string { return k.note }

// ID returns the row id, or 0 for the database root.
func (k *SQLiteNode) ID() int64 { return k.id }

func (k *SQLiteNode) parentKey() sql.NullInt64 {
	return sql.NullInt64{Int64: k.id, Valid: k.id != 0}
}

func (k *SQLiteNode) LoadChildren(n *tree.Node) error {
	rows, err := k.src.db.Query(`
		SELECT id, text, note,
		       EXISTS (SELECT 1 FROM nodes c WHERE c.parent_id = n.id)
		FROM nodes n
		WHERE parent_id IS ?
		ORDER BY position, id`, k.parentKey())
	if err != nil {
		return fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	var nodes []*tree.Node
	for rows.Next() {
		child := &SQLiteNode{src: k.src}
		if err := rows.Scan(&child.id, &child.text, &child.note, &child.hasChildren); err != nil {
			return fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, child.node())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating nodes: %w", err)
	}
	return n.Children().AddRange(nodes)
}

func (k *SQLiteNode) node() *tree.Node {
	n := tree.New(k)
	if k.hasChildren {
		_ = n.SetLazyLoading(true)
	}
	return n
}

func (k *SQLiteNode) LoadEditText(*tree.Node) string { return k.text }

func (k *SQLiteNode) SaveEditText(_ *tree.Node, text string) bool {
	if k.id == 0 || k.src.readOnly || text == "" {
		return false
	}
	if _, err := k.src.db.Exec("UPDATE nodes SET text = ? WHERE id = ?", text, k.id); err != nil {
		debug.Log("datasource: update node %d: %v", k.id, err)
		return false
	}
	k.text = text
	return true
}

func (k *SQLiteNode) CanDelete(*tree.Node) bool { return k.id != 0 && !k.src.readOnly }

// Delete removes the row and all rows below it.
func (k *SQLiteNode) Delete(n *tree.Node) error {
	_, err := k.src.db.Exec(`
		WITH RECURSIVE sub(id) AS (
			SELECT ?
			UNION ALL
			SELECT n.id FROM nodes n JOIN sub ON n.parent_id = sub.id
		)
		DELETE FROM nodes WHERE id IN (SELECT id FROM sub)`, k.id)
	if err != nil {
		return fmt.Errorf("delete node %d: %w", k.id, err)
	}
	return n.Detach()
}

// Copy reads the selected subtrees as outline entries.
func (k *SQLiteNode) Copy(nodes []*tree.Node) (tree.Payload, error) {
	var out []*Outline
	for _, n := range nodes {
		sk, ok := n.Kind().(*SQLiteNode)
		if !ok || sk.id == 0 {
			continue
		}
		o, err := k.src.outline(sk.id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("copy: no rows selected")
	}
	return out, nil
}

func (s *SQLiteSource) outline(id int64) (*Outline, error) {
	o := &Outline{}
	if err := s.db.QueryRow("SELECT text, note FROM nodes WHERE id = ?", id).Scan(&o.Text, &o.Note); err != nil {
		return nil, fmt.Errorf("read node %d: %w", id, err)
	}
	rows, err := s.db.Query("SELECT id FROM nodes WHERE parent_id = ? ORDER BY position, id", id)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var cid int64
		if err := rows.Scan(&cid); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, cid)
	}
	rows.Close()
	for _, cid := range ids {
		c, err := s.outline(cid)
		if err != nil {
			return nil, err
		}
		o.Children = append(o.Children, c)
	}
	return o, nil
}

func (k *SQLiteNode) CanDrop(_ *tree.Node, _ int, p tree.Payload) bool {
	entries, ok := p.([]*Outline)
	return ok && len(entries) > 0 && !k.src.readOnly
}

// Drop inserts the dropped outlines as rows at index and renumbers the
// siblings so positions match child indices.
func (k *SQLiteNode) Drop(n *tree.Node, index int, p tree.Payload) error {
	entries, ok := p.([]*Outline)
	if !ok || k.src.readOnly {
		return fmt.Errorf("drop %T on %q: %w", p, k.text, tree.ErrUnsupportedOperation)
	}
	ctx := context.Background()
	tx, err := k.src.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		"SELECT id FROM nodes WHERE parent_id IS ? ORDER BY position, id", k.parentKey())
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()

	index = max(0, min(index, len(ids)))
	for i, id := range ids {
		pos := i
		if i >= index {
			pos += len(entries)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE nodes SET position = ? WHERE id = ?", pos, id); err != nil {
			return err
		}
	}
	added := make([]*tree.Node, len(entries))
	for i, o := range entries {
		id, err := insertOutline(ctx, tx, k.parentKey(), index+i, o)
		if err != nil {
			return err
		}
		added[i] = (&SQLiteNode{src: k.src, id: id, text: o.Text, note: o.Note, hasChildren: len(o.Children) > 0}).node()
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	k.hasChildren = true
	if n.IsLazyLoading() {
		return nil
	}
	return n.Children().InsertRange(index, added)
}

func validateSQLite(path string) error {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, path, true)
	if err != nil {
		return err
	}
	defer s.Close()
	var name string
	err = s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'nodes'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: no nodes table", path)
	}
	return err
}
