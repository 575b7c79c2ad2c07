package domain

// TriggerKind names the event that starts an action sequence.
type TriggerKind string

const (
	// OnTrigger fires on any status-change click, before the specific kind.
	OnTrigger TriggerKind = "onTrigger"
	// OnDone fires when an item transitions to done.
	OnDone TriggerKind = "onDone"
	// OnError fires when an item transitions to the error status.
	OnError TriggerKind = "onError"
	// OnInProgress fires when an item transitions to in-progress.
	OnInProgress TriggerKind = "onInProgress"
	// OnCancelled fires when an item transitions to cancelled.
	OnCancelled TriggerKind = "onCancelled"
	// OnReset fires when an item's status is cleared back to open.
	OnReset TriggerKind = "onReset"
	// OnEnter is cursor-driven line completion; it has no work item.
	OnEnter TriggerKind = "onEnter"
	// OnData fires when a pending response is handed off to the item.
	OnData TriggerKind = "onData"
)

// TriggerKinds lists the recognized trigger section keys in document order.
var TriggerKinds = []TriggerKind{
	OnTrigger, OnDone, OnError, OnInProgress,
	OnCancelled, OnReset, OnEnter, OnData,
}

// KnownTriggerKind reports whether s names a recognized trigger key.
func KnownTriggerKind(s string) bool {
	for _, k := range TriggerKinds {
		if string(k) == s {
			return true
		}
	}
	return false
}

// Trigger binds an action sequence to the event that starts it.
type Trigger struct {
	Kind    TriggerKind
	Actions []ActionNode
}

// RawItem is one bullet of the raw configuration outline: its text with the
// bullet prefix removed, plus its indented children in document order.
type RawItem struct {
	Text     string
	Children []RawItem
}

// Config is a parsed tag configuration. Built once per configuration load,
// immutable, and shared read-only across executions for that tag.
type Config struct {
	Triggers  []Trigger
	SourceTag string
	Raw       []RawItem
}

// Trigger returns the trigger of the given kind, or nil.
func (c *Config) Trigger(kind TriggerKind) *Trigger {
	for i := range c.Triggers {
		if c.Triggers[i].Kind == kind {
			return &c.Triggers[i]
		}
	}
	return nil
}

// HasTrigger reports whether the config declares the given trigger kind.
func (c *Config) HasTrigger(kind TriggerKind) bool {
	return c.Trigger(kind) != nil
}

// Result is the outcome of one trigger execution.
type Result struct {
	Success bool
	// Value carries the optional return value of the sequence.
	Value any
	Err   error
}
