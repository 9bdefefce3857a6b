// Package menu owns the hierarchical menu tree, navigation state and the
// event loop that turns input events and device facts into speech and
// actions.
package menu

import (
	"fmt"
	"strings"
)

// Kind discriminates the node variants. Each variant carries only the
// fields it needs: an action for leaves, a children provider for dynamic
// submenus.
type Kind int

const (
	// Leaf is a selectable end node with an optional action.
	Leaf Kind = iota
	// Submenu holds a fixed, ordered child list built at startup.
	Submenu
	// DynamicSubmenu rebuilds its children from live external state on
	// every entry and on relevant device facts.
	DynamicSubmenu
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Submenu:
		return "submenu"
	case DynamicSubmenu:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Node is one menu entry. The static tree is built once at startup;
// DynamicSubmenu children are replaced wholesale by the provider.
type Node struct {
	// ID is the stable path from the root, e.g. "root/settings/voice".
	// Assigned by Finalize.
	ID string

	// Label is the text spoken for this node. Never empty.
	Label string

	Kind     Kind
	Children []*Node

	// Action runs when a Leaf is selected. May be nil.
	Action func() error

	// Provider supplies the children of a DynamicSubmenu. Called
	// synchronously on entry; must not block on network.
	Provider func() []*Node

	// EmptyLabel is spoken when a DynamicSubmenu's provider yields no
	// children.
	EmptyLabel string

	// DeviceBound marks a DynamicSubmenu whose children derive from
	// attached storage, so arriving device facts refresh it immediately
	// while it is on the active path.
	DeviceBound bool

	name   string // path segment, set by the constructors
	parent *Node
}

// NewLeaf creates a leaf node. name is the ID path segment.
func NewLeaf(name, label string, action func() error) *Node {
	return &Node{name: name, Label: label, Kind: Leaf, Action: action}
}

// NewSubmenu creates a static submenu with the given ordered children.
func NewSubmenu(name, label string, children ...*Node) *Node {
	return &Node{name: name, Label: label, Kind: Submenu, Children: children}
}

// NewDynamic creates a submenu whose children come from provider.
func NewDynamic(name, label, emptyLabel string, provider func() []*Node) *Node {
	return &Node{
		name:       name,
		Label:      label,
		Kind:       DynamicSubmenu,
		EmptyLabel: emptyLabel,
		Provider:   provider,
	}
}

// NewDeviceMenu creates a storage-bound dynamic submenu: its children are
// rebuilt on entry and whenever a device fact arrives while it is active.
func NewDeviceMenu(name, label, emptyLabel string, provider func() []*Node) *Node {
	n := NewDynamic(name, label, emptyLabel, provider)
	n.DeviceBound = true
	return n
}

// Finalize assigns IDs and parents across the tree and validates the
// invariants: non-empty labels, no node reachable twice, dynamic nodes have
// providers. Call once on the root before handing the tree to an Engine.
func Finalize(root *Node) error {
	if root == nil {
		return fmt.Errorf("menu tree has no root")
	}
	seen := make(map[*Node]bool)
	return finalize(root, "root", nil, seen)
}

func finalize(n *Node, id string, parent *Node, seen map[*Node]bool) error {
	if seen[n] {
		return fmt.Errorf("node %q appears in the tree more than once", n.Label)
	}
	seen[n] = true

	if strings.TrimSpace(n.Label) == "" {
		return fmt.Errorf("node %q has an empty label", id)
	}
	if n.Kind == DynamicSubmenu && n.Provider == nil {
		return fmt.Errorf("dynamic node %q has no provider", id)
	}

	n.ID = id
	n.parent = parent
	for _, c := range n.Children {
		seg := c.name
		if seg == "" {
			seg = strings.ToLower(strings.ReplaceAll(c.Label, " ", "-"))
		}
		if err := finalize(c, id+"/"+seg, n, seen); err != nil {
			return err
		}
	}
	return nil
}

// adoptDynamic installs freshly provided children under a dynamic node,
// assigning IDs relative to it. Provider output replaces any previous list.
func adoptDynamic(n *Node, children []*Node) {
	n.Children = children
	for _, c := range children {
		seg := c.name
		if seg == "" {
			seg = strings.ToLower(strings.ReplaceAll(c.Label, " ", "-"))
		}
		c.ID = n.ID + "/" + seg
		c.parent = n
	}
}

// SpeechTexts collects every label the static tree can speak, including
// dynamic empty-state labels, for cache pre-generation.
func SpeechTexts(root *Node) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, t := range []string{n.Label, n.EmptyLabel} {
			if t != "" && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}
