package store

// ActionKind identifies the mutation currently in flight.
type ActionKind string

// Action kinds. ActionNone is the zero value.
const (
	ActionNone   ActionKind = ""
	ActionAdd    ActionKind = "add"
	ActionToggle ActionKind = "toggle"
	ActionEdit   ActionKind = "edit"
	ActionDelete ActionKind = "delete"
)

func (k ActionKind) String() string {
	if k == ActionNone {
		return "none"
	}
	return string(k)
}

// NewTaskTarget is the ActionState target while an add is in flight,
// before the task has any id of its own.
const NewTaskTarget = "new"

// ActionState describes the single in-flight mutation of a store.
// The zero value means nothing is in flight.
type ActionState struct {
	TargetID string
	Kind     ActionKind
}

// Active reports whether a mutation is in flight.
func (a ActionState) Active() bool {
	return a.Kind != ActionNone
}

// Targets reports whether the in-flight mutation is for the given task.
func (a ActionState) Targets(id string) bool {
	return a.Active() && a.TargetID == id
}
