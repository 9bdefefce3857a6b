package menu

// State is what the engine is doing about speech right now. Navigation is
// never blocked by it.
type State int

const (
	// Idle means no speech is pending or playing.
	Idle State = iota
	// AwaitingArtifact means the current node's speech is being resolved;
	// input is still accepted and may supersede it.
	AwaitingArtifact
	// Speaking means an artifact for the current node has been handed to
	// the player.
	Speaking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingArtifact:
		return "awaiting-artifact"
	case Speaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// frame is one ancestor step: the submenu we were in and which child was
// selected when we descended.
type frame struct {
	node  *Node
	index int
}

// navState is the cursor into the tree: the submenu currently listed, the
// selected child index, and the ancestor stack that makes Back a faithful
// undo log. Stack depth always equals node depth; index stays inside
// [0, len(children)) unless the child list is empty.
type navState struct {
	current *Node
	index   int
	stack   []frame
}

// selected returns the node the cursor points at, or nil in an empty list.
func (n *navState) selected() *Node {
	if len(n.current.Children) == 0 {
		return nil
	}
	return n.current.Children[n.index]
}

// descend pushes the present position and enters child.
func (n *navState) descend(child *Node) {
	n.stack = append(n.stack, frame{node: n.current, index: n.index})
	n.current = child
	n.index = 0
}

// ascend pops back to the parent, restoring its selection. Reports false at
// the root.
func (n *navState) ascend() bool {
	if len(n.stack) == 0 {
		return false
	}
	f := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]
	n.current = f.node
	n.index = f.index
	return true
}

// path returns the active chain from root to the current submenu.
func (n *navState) path() []*Node {
	out := make([]*Node, 0, len(n.stack)+1)
	for _, f := range n.stack {
		out = append(out, f.node)
	}
	return append(out, n.current)
}
