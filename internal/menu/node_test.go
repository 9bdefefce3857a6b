package menu

import (
	"testing"
)

// TestFinalizeAssignsIDs tests the ID paths Finalize assigns.
func TestFinalizeAssignsIDs(t *testing.T) {
	grand := NewLeaf("voice", "Выбор голоса", nil)
	child := NewSubmenu("settings", "Настройки", grand)
	root := NewSubmenu("", "Главное меню", child)

	if err := Finalize(root); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	tests := []struct {
		node *Node
		want string
	}{
		{root, "root"},
		{child, "root/settings"},
		{grand, "root/settings/voice"},
	}
	for _, tt := range tests {
		if tt.node.ID != tt.want {
			t.Errorf("ID = %q, want %q", tt.node.ID, tt.want)
		}
	}
	if grand.parent != child || child.parent != root {
		t.Error("parent links not assigned")
	}
}

// TestFinalizeRejectsInvalidTrees tests the structural invariants.
func TestFinalizeRejectsInvalidTrees(t *testing.T) {
	shared := NewLeaf("x", "Общий", nil)

	tests := []struct {
		name string
		root *Node
	}{
		{
			name: "nil root",
			root: nil,
		},
		{
			name: "empty label",
			root: NewSubmenu("", "Меню", NewLeaf("a", "   ", nil)),
		},
		{
			name: "node reused twice",
			root: NewSubmenu("", "Меню", shared, NewSubmenu("sub", "Под", shared)),
		},
		{
			name: "dynamic without provider",
			root: NewSubmenu("", "Меню", NewDynamic("d", "Динамика", "Пусто", nil)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Finalize(tt.root); err == nil {
				t.Error("Finalize() = nil error, want validation failure")
			}
		})
	}
}

// TestAdoptDynamicAssignsRelativeIDs tests that provided children slot in
// under the dynamic node's ID.
func TestAdoptDynamicAssignsRelativeIDs(t *testing.T) {
	dyn := NewDeviceMenu("storage", "Внешний носитель", "Пусто",
		func() []*Node { return nil })
	root := NewSubmenu("", "Меню", dyn)
	if err := Finalize(root); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	kids := []*Node{NewLeaf("usb-a", "Флешка А", nil)}
	adoptDynamic(dyn, kids)

	if got := dyn.Children[0].ID; got != "root/storage/usb-a" {
		t.Errorf("adopted child ID = %q, want root/storage/usb-a", got)
	}
	if dyn.Children[0].parent != dyn {
		t.Error("adopted child parent not set")
	}

	// A second adoption replaces the list wholesale.
	adoptDynamic(dyn, nil)
	if len(dyn.Children) != 0 {
		t.Errorf("children after empty adoption = %d, want 0", len(dyn.Children))
	}
}

// TestSpeechTexts tests that every spoken label appears once, including
// dynamic empty-state labels.
func TestSpeechTexts(t *testing.T) {
	root := NewSubmenu("", "Меню",
		NewLeaf("a", "Запись", nil),
		NewSubmenu("sub", "Запись", // duplicate label on purpose
			NewLeaf("b", "Играть", nil),
		),
		NewDeviceMenu("storage", "Внешний носитель", "Нет устройств",
			func() []*Node { return nil }),
	)
	if err := Finalize(root); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	got := SpeechTexts(root)
	want := []string{"Меню", "Запись", "Играть", "Внешний носитель", "Нет устройств"}
	if len(got) != len(want) {
		t.Fatalf("SpeechTexts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SpeechTexts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestStateString tests the State String method.
func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{AwaitingArtifact, "awaiting-artifact"},
		{Speaking, "speaking"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
