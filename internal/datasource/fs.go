package datasource

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/treelist/pkg/debug"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

// maxNoteSize caps how much of a markdown file is read for the detail pane.
const maxNoteSize = 64 << 10

// fsEntry is the part shared by directory and file kinds.
type fsEntry struct {
	path string
	name string
}

func (e *fsEntry) Text() string { return e.name }

// Path returns the entry's filesystem path.
func (e *fsEntry) Path() string { return e.path }

func (e *fsEntry) entry() *fsEntry { return e }

type fsKind interface {
	tree.Kind
	entry() *fsEntry
}

// PathOf returns the filesystem path behind n.
func PathOf(n *tree.Node) (string, bool) {
	k, ok := n.Kind().(fsKind)
	if !ok {
		return "", false
	}
	return k.entry().path, true
}

// DirNode is a directory whose entries are read on first expansion.
type DirNode struct{ fsEntry }

// FileNode is a regular file (or anything that is not a directory).
type FileNode struct {
	fsEntry
	size    int64
	modTime time.Time
}

// NewDir returns a lazy node for the directory at path.
func NewDir(path string) *tree.Node {
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		name = path
	}
	n := tree.New(&DirNode{fsEntry{path: path, name: name}})
	_ = n.SetLazyLoading(true)
	return n
}

func newFile(path string, info fs.FileInfo) *tree.Node {
	k := &FileNode{fsEntry: fsEntry{path: path, name: filepath.Base(path)}}
	if info != nil {
		k.size = info.Size()
		k.modTime = info.ModTime()
	}
	return tree.New(k)
}

func newEntryNode(dir string, e fs.DirEntry) *tree.Node {
	path := filepath.Join(dir, e.Name())
	var n *tree.Node
	if e.IsDir() {
		n = NewDir(path)
	} else {
		info, _ := e.Info()
		n = newFile(path, info)
	}
	if strings.HasPrefix(e.Name(), ".") {
		_ = n.SetHidden(true)
	}
	return n
}

// readEntries lists dir with directories first, then by case-folded name.
func readEntries(dir string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})
	return entries, nil
}

func (k *DirNode) LoadChildren(n *tree.Node) error {
	entries, err := readEntries(k.path)
	if err != nil {
		return err
	}
	nodes := make([]*tree.Node, len(entries))
	for i, e := range entries {
		nodes[i] = newEntryNode(k.path, e)
	}
	debug.Log("datasource: loaded %d entries of %s", len(nodes), k.path)
	return n.Children().AddRange(nodes)
}

// entryKey identifies a child across reloads.
func entryKey(n *tree.Node) string {
	switch k := n.Kind().(type) {
	case *DirNode:
		return "d:" + k.name
	case *FileNode:
		return "f:" + k.name
	}
	return ""
}

// Reload brings the loaded children of a directory node in line with the
// directory on disk. Children that still exist keep their nodes, and with
// them their expansion and selection state. A directory that was never
// expanded is left alone.
func Reload(n *tree.Node) error {
	k, ok := n.Kind().(*DirNode)
	if !ok {
		return fmt.Errorf("reload %q: %w", n.Text(), tree.ErrUnsupportedOperation)
	}
	if n.IsLazyLoading() {
		return nil
	}
	entries, err := readEntries(k.path)
	if err != nil {
		return err
	}
	want := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			want["d:"+e.Name()] = true
		} else {
			want["f:"+e.Name()] = true
		}
	}
	children := n.Children()
	if err := children.RemoveAll(func(c *tree.Node) bool { return !want[entryKey(c)] }); err != nil {
		return err
	}
	for i, e := range entries {
		key := "f:" + e.Name()
		if e.IsDir() {
			key = "d:" + e.Name()
		}
		if i < children.Len() {
			if c, _ := children.At(i); entryKey(c) == key {
				if fk, ok := c.Kind().(*FileNode); ok {
					if info, err := e.Info(); err == nil {
						fk.size, fk.modTime = info.Size(), info.ModTime()
					}
				}
				continue
			}
		}
		if err := children.Insert(i, newEntryNode(k.path, e)); err != nil {
			return err
		}
	}
	debug.Log("datasource: reloaded %s (%d entries)", k.path, len(entries))
	return nil
}

// FindDir returns the loaded directory node for path below root.
func FindDir(root *tree.Node, path string) *tree.Node {
	path = filepath.Clean(path)
	var found *tree.Node
	root.Walk(func(n *tree.Node) bool {
		if found != nil {
			return false
		}
		k, ok := n.Kind().(fsKind)
		if !ok {
			return true
		}
		p := k.entry().path
		if p == path {
			if _, dir := k.(*DirNode); dir {
				found = n
			}
			return false
		}
		return strings.HasPrefix(path, p+string(filepath.Separator))
	})
	return found
}

// LoadedDirs returns the paths of every directory whose entries are loaded.
func LoadedDirs(root *tree.Node) []string {
	var dirs []string
	root.Walk(func(n *tree.Node) bool {
		if k, ok := n.Kind().(*DirNode); ok {
			if n.IsLazyLoading() {
				return false
			}
			dirs = append(dirs, k.path)
		}
		return true
	})
	return dirs
}

func (e *fsEntry) LoadEditText(*tree.Node) string { return e.name }

// SaveEditText renames the entry on disk.
func (e *fsEntry) SaveEditText(n *tree.Node, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || text == e.name || strings.ContainsRune(text, filepath.Separator) {
		return text == e.name
	}
	newPath := filepath.Join(filepath.Dir(e.path), text)
	if _, err := os.Lstat(newPath); err == nil {
		debug.Log("datasource: rename %s: %s exists", e.path, newPath)
		return false
	}
	if err := os.Rename(e.path, newPath); err != nil {
		debug.Log("datasource: rename %s: %v", e.path, err)
		return false
	}
	old := e.path
	for _, d := range n.Descendants() {
		if k, ok := d.Kind().(fsKind); ok {
			k.entry().path = newPath + strings.TrimPrefix(k.entry().path, old)
		}
	}
	e.path, e.name = newPath, text
	return true
}

// CanDelete allows deleting files and empty directories below the root.
func (e *fsEntry) CanDelete(n *tree.Node) bool {
	if n.Parent() == nil {
		return false
	}
	_, ok := n.Parent().Kind().(*DirNode)
	return ok
}

func (e *fsEntry) Delete(n *tree.Node) error {
	if err := os.Remove(e.path); err != nil {
		return err
	}
	return n.Detach()
}

// Copy returns the paths of the copied entries.
func (e *fsEntry) Copy(nodes []*tree.Node) (tree.Payload, error) {
	paths := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if p, ok := PathOf(n); ok {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("copy: no files selected")
	}
	return paths, nil
}

func (e *fsEntry) CanDrag(nodes []*tree.Node) bool {
	for _, n := range nodes {
		if _, ok := PathOf(n); !ok {
			return false
		}
	}
	return len(nodes) > 0
}

// CanDrop accepts a list of regular file paths.
func (k *DirNode) CanDrop(_ *tree.Node, _ int, p tree.Payload) bool {
	paths, ok := p.([]string)
	if !ok || len(paths) == 0 {
		return false
	}
	for _, src := range paths {
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}

// Drop copies the dropped files into the directory. Entries stay sorted, so
// index is ignored.
func (k *DirNode) Drop(n *tree.Node, _ int, p tree.Payload) error {
	paths, ok := p.([]string)
	if !ok {
		return fmt.Errorf("drop %T on directory: %w", p, tree.ErrUnsupportedOperation)
	}
	for _, src := range paths {
		dst := filepath.Join(k.path, filepath.Base(src))
		if dst == src {
			continue
		}
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("copy %s: %w", src, err)
		}
	}
	return Reload(n)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Note returns markdown files as-is and a short summary for anything else.
func (k *FileNode) Note() string {
	ext := strings.ToLower(filepath.Ext(k.path))
	if ext == ".md" || ext == ".markdown" {
		f, err := os.Open(k.path)
		if err == nil {
			defer f.Close()
			data, err := io.ReadAll(io.LimitReader(f, maxNoteSize))
			if err == nil {
				return string(data)
			}
		}
	}
	return fmt.Sprintf("**%s**\n\n- size: %d bytes\n- modified: %s\n",
		k.name, k.size, k.modTime.Format(time.RFC3339))
}

// Note lists where the directory lives.
func (k *DirNode) Note() string {
	return fmt.Sprintf("**%s/**\n\n`%s`\n", k.name, k.path)
}
