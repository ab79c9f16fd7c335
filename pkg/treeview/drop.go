package treeview

import (
	"fmt"

	"github.com/vanderheijden86/treelist/pkg/tree"
)

// Place is where a dragged payload lands relative to the row under the
// pointer.
type Place int

const (
	Before Place = iota
	Inside
	After
)

func (p Place) String() string {
	switch p {
	case Before:
		return "before"
	case Inside:
		return "inside"
	case After:
		return "after"
	default:
		return fmt.Sprintf("Place(%d)", int(p))
	}
}

// DropTarget is one accepted way to drop onto a row: Node receives the
// payload at child Index. Item is the row the marker is drawn at and Y is
// the lower edge of the target's band as a fraction of the row height.
type DropTarget struct {
	Item  *tree.Node
	Place Place
	Node  *tree.Node
	Index int
	Y     float64
}

// DropTargets returns the accepted targets for dropping p onto item, top to
// bottom. Without AllowDropOrder only Inside is considered.
func (v *View) DropTargets(item *tree.Node, p tree.Payload) []DropTarget {
	var result []DropTarget
	try := func(at *tree.Node, place Place) {
		node, index := nodeAndIndex(at, place)
		if node != nil && node.CanDrop(index, p) {
			result = append(result, DropTarget{Item: at, Place: place, Node: node, Index: index})
		}
	}

	if v.opts.AllowDropOrder {
		try(item, Before)
	}
	try(item, Inside)
	if v.opts.AllowDropOrder {
		if item.IsExpanded() && item.Children().Len() > 0 {
			first, _ := item.Children().At(0)
			try(first, Before)
		} else {
			try(item, After)
		}
	}

	const y1, y2, y3 = 0.2, 0.5, 0.8
	switch len(result) {
	case 2:
		switch {
		case result[0].Place == Inside && result[1].Place != Inside:
			result[0].Y = y3
		case result[0].Place != Inside && result[1].Place == Inside:
			result[0].Y = y1
		default:
			result[0].Y = y2
		}
	case 3:
		result[0].Y = y1
		result[1].Y = y3
	}
	if len(result) > 0 {
		result[len(result)-1].Y = 1
	}
	return result
}

// DropTargetAt picks the target whose band contains y, a position inside
// the row as a fraction of its height.
func (v *View) DropTargetAt(item *tree.Node, p tree.Payload, y float64) (DropTarget, bool) {
	for _, t := range v.DropTargets(item, p) {
		if t.Y >= y {
			return t, true
		}
	}
	return DropTarget{}, false
}

func nodeAndIndex(item *tree.Node, place Place) (*tree.Node, int) {
	switch place {
	case Inside:
		return item, item.Children().Len()
	case Before, After:
		parent := item.Parent()
		if parent == nil {
			return nil, 0
		}
		index := parent.Children().IndexOf(item)
		if place == After {
			index++
		}
		return parent, index
	}
	return nil, 0
}

// Drop drops p at target.
func (v *View) Drop(target DropTarget, p tree.Payload) error {
	if target.Node == nil {
		return fmt.Errorf("drop: %w", tree.ErrUnsupportedOperation)
	}
	return target.Node.Drop(target.Index, p)
}

// CanRootDrop reports whether p can be dropped on the empty area of the
// list. Only a hidden root accepts such drops, appended to its children.
func (v *View) CanRootDrop(p tree.Payload) bool {
	return v.root != nil && !v.opts.ShowRoot && v.root.CanDrop(v.root.Children().Len(), p)
}

// RootDrop appends p to the children of a hidden root.
func (v *View) RootDrop(p tree.Payload) error {
	if v.root == nil || v.opts.ShowRoot {
		return fmt.Errorf("drop on list background: %w", tree.ErrUnsupportedOperation)
	}
	return v.root.Drop(v.root.Children().Len(), p)
}
