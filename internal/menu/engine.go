package menu

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/audionav/govorun/internal/audio"
	"github.com/audionav/govorun/internal/device"
)

// EventKind is an input event type.
type EventKind int

const (
	// NavigateUp moves the selection to the previous sibling.
	NavigateUp EventKind = iota
	// NavigateDown moves the selection to the next sibling.
	NavigateDown
	// SelectItem activates the selected node.
	SelectItem
	// GoBack returns to the parent submenu.
	GoBack
	// DeviceEvent delivers a storage fact into the loop.
	DeviceEvent
)

// Event is one unit of input. Device facts travel through the same
// serialized channel as button presses so no two transitions interleave.
type Event struct {
	Kind EventKind
	Fact *device.Fact
}

// Resolver turns a label into a playable artifact path. The cache store
// satisfies it through ResolveFunc.
type Resolver interface {
	Resolve(ctx context.Context, text string) (string, error)
}

// ResolveFunc adapts a function to the Resolver interface.
type ResolveFunc func(ctx context.Context, text string) (string, error)

// Resolve implements Resolver.
func (f ResolveFunc) Resolve(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Config carries the engine's spoken fixtures.
type Config struct {
	// ErrorCue is spoken when a leaf action fails or speech resolution is
	// exhausted. Empty disables the cue (silent degradation).
	ErrorCue string
}

// speechResult is a resolved artifact coming back to the loop.
type speechResult struct {
	seq  uint64
	text string
	path string
	err  error
}

// Engine runs the menu state machine. All NavigationState mutation happens
// on the single Run goroutine; speech resolution runs concurrently and is
// superseded by sequence number, so rapid navigation never queues a backlog
// of stale utterances.
type Engine struct {
	nav      navState
	state    State
	resolver Resolver
	player   audio.Player
	cfg      Config
	logger   *log.Logger

	events  chan Event
	results chan speechResult

	// seq numbers speech requests; only the highest-sequence completed
	// request is ever played. Owned by the loop goroutine.
	seq uint64
}

// NewEngine finalizes the tree and builds an engine positioned at the root.
func NewEngine(root *Node, resolver Resolver, player audio.Player, cfg Config, logger *log.Logger) (*Engine, error) {
	if err := Finalize(root); err != nil {
		return nil, err
	}
	return &Engine{
		nav:      navState{current: root},
		state:    Idle,
		resolver: resolver,
		player:   player,
		cfg:      cfg,
		logger:   logger,
		events:   make(chan Event, 64),
		results:  make(chan speechResult, 8),
	}, nil
}

// Submit hands an event to the loop without ever blocking the caller. When
// the queue is full the event is dropped; input producers must stay live.
func (e *Engine) Submit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("event queue full, dropping input", "kind", ev.Kind)
	}
}

// Run consumes events until ctx is canceled. It speaks the initial
// selection on entry and keeps accepting input even when the speech or
// storage subsystems are degraded.
func (e *Engine) Run(ctx context.Context) error {
	e.speakSelection(ctx)
	for {
		select {
		case <-ctx.Done():
			_ = e.player.Stop()
			return ctx.Err()
		case ev := <-e.events:
			e.apply(ctx, ev)
		case res := <-e.results:
			e.deliver(ctx, res)
		}
	}
}

// Location reports the current submenu ID and selected index. Loop-owned;
// read it only from the loop goroutine or after Run has stopped.
func (e *Engine) Location() (string, int) {
	return e.nav.current.ID, e.nav.index
}

// State reports what the engine is doing about speech. The player does not
// notify the loop when an artifact drains, so Speaking is checked against the
// player on read.
func (e *Engine) State() State {
	if e.state == Speaking && !e.player.IsPlaying() {
		return Idle
	}
	return e.state
}

// apply performs one state-machine transition.
func (e *Engine) apply(ctx context.Context, ev Event) {
	switch ev.Kind {
	case NavigateUp:
		e.move(ctx, -1)
	case NavigateDown:
		e.move(ctx, +1)
	case SelectItem:
		e.selectItem(ctx)
	case GoBack:
		e.back(ctx)
	case DeviceEvent:
		if ev.Fact != nil {
			e.deviceFact(ctx, *ev.Fact)
		}
	}
}

// move shifts the selection with saturation: at the first child NavigateUp
// is a no-op, at the last NavigateDown is a no-op, and a no-op issues no
// speech request.
func (e *Engine) move(ctx context.Context, delta int) {
	n := len(e.nav.current.Children)
	if n == 0 {
		return
	}
	next := e.nav.index + delta
	if next < 0 || next >= n {
		return
	}
	e.nav.index = next
	e.speakSelection(ctx)
}

func (e *Engine) selectItem(ctx context.Context) {
	child := e.nav.selected()
	if child == nil {
		return
	}

	switch child.Kind {
	case Leaf:
		if child.Action == nil {
			return
		}
		if err := child.Action(); err != nil {
			// The state machine stays in the pre-select state; the
			// failure is only audible.
			e.logger.Error("action failed", "node", child.ID, "err", err)
			e.speakCue(ctx)
		}

	case Submenu:
		e.nav.descend(child)
		e.speakSelection(ctx)

	case DynamicSubmenu:
		// Refresh replaces any previous dynamic child list. With zero
		// children we descend anyway and speak the empty-state label.
		adoptDynamic(child, child.Provider())
		e.nav.descend(child)
		e.speakSelection(ctx)
	}
}

func (e *Engine) back(ctx context.Context) {
	if !e.nav.ascend() {
		// Already at the root.
		return
	}
	e.speakSelection(ctx)
}

// deviceFact merges a storage fact into the menu. If a storage-bound
// dynamic submenu is on the active path its children are recomputed right
// away; otherwise nothing changes now and the provider supplies the fresh
// set on the next entry.
func (e *Engine) deviceFact(ctx context.Context, f device.Fact) {
	e.logger.Debug("device fact", "kind", f.Kind.String(), "id", f.Device.ID)

	var dyn *Node
	var depth int
	for i, n := range e.nav.path() {
		if n.Kind == DynamicSubmenu && n.DeviceBound {
			dyn, depth = n, i
			break
		}
	}
	if dyn == nil {
		return
	}

	var selectedID string
	if dyn == e.nav.current {
		if sel := e.nav.selected(); sel != nil {
			selectedID = sel.ID
		}
	}

	adoptDynamic(dyn, dyn.Provider())

	if dyn != e.nav.current {
		// The user stood somewhere below the refreshed list; that subtree
		// was rebuilt, so pull the cursor back onto the dynamic node.
		e.nav.stack = e.nav.stack[:depth]
		e.nav.current = dyn
		e.nav.index = 0
		e.speakSelection(ctx)
		return
	}

	// Keep the selection if the same child still exists, else reset to 0.
	e.nav.index = 0
	changed := true
	for i, c := range dyn.Children {
		if c.ID == selectedID && selectedID != "" {
			e.nav.index = i
			changed = false
			break
		}
	}
	if changed {
		e.speakSelection(ctx)
	}
}

// speakSelection issues the single TTS request that ends every transition
// changing the spoken node: the selected child's label, or the dynamic
// empty-state label when the child list is empty.
func (e *Engine) speakSelection(ctx context.Context) {
	if sel := e.nav.selected(); sel != nil {
		e.speakText(ctx, sel.Label)
		return
	}
	if e.nav.current.EmptyLabel != "" {
		e.speakText(ctx, e.nav.current.EmptyLabel)
		return
	}
	e.state = Idle
}

// speakText starts asynchronous resolution of text. A newer request
// supersedes delivery of any older one; an in-flight generation still
// finishes and lands in the cache for reuse.
func (e *Engine) speakText(ctx context.Context, text string) {
	e.seq++
	seq := e.seq
	e.state = AwaitingArtifact

	go func() {
		path, err := e.resolver.Resolve(ctx, text)
		select {
		case e.results <- speechResult{seq: seq, text: text, path: path, err: err}:
		case <-ctx.Done():
		}
	}()
}

// speakCue plays the audible error cue, if one is configured.
func (e *Engine) speakCue(ctx context.Context) {
	if e.cfg.ErrorCue == "" {
		return
	}
	e.speakText(ctx, e.cfg.ErrorCue)
}

// deliver receives a resolved artifact. Only the highest-sequence request
// is played; anything older was superseded and is discarded unplayed.
func (e *Engine) deliver(ctx context.Context, res speechResult) {
	if res.seq != e.seq {
		e.logger.Debug("discarding superseded utterance", "text", res.text)
		return
	}

	if res.err != nil {
		// The menu still navigates; the node just stays silent apart from
		// the generic cue.
		e.logger.Error("speech resolution failed", "text", res.text, "err", res.err)
		e.state = Idle
		if res.text != e.cfg.ErrorCue {
			e.speakCue(ctx)
		}
		return
	}

	_ = e.player.Stop()
	if err := e.player.Play(res.path); err != nil {
		e.logger.Error("playback failed", "path", res.path, "err", err)
		e.state = Idle
		return
	}
	e.state = Speaking
}
