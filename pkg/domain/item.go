package domain

// Status is the checkbox state of a tracked work item.
type Status string

const (
	StatusOpen       Status = " "
	StatusDone       Status = "x"
	StatusError      Status = "!"
	StatusInProgress Status = "/"
	StatusCancelled  Status = "-"
)

// TriggerFor maps a status transition to the trigger kind it fires.
// OnTrigger additionally fires for every transition; that dispatch is the
// engine's concern, not the mapping's.
func TriggerFor(s Status) (TriggerKind, bool) {
	switch s {
	case StatusDone:
		return OnDone, true
	case StatusError:
		return OnError, true
	case StatusInProgress:
		return OnInProgress, true
	case StatusCancelled:
		return OnCancelled, true
	case StatusOpen:
		return OnReset, true
	}
	return "", false
}

// GeneratedMarkers are the list-bullet characters the engine is allowed to
// write and remove. Lines carrying any other bullet are human-authored and
// must never be touched by task or append actions.
const GeneratedMarkers = "*+"

// GeneratedMarker reports whether marker tags an engine-generated line.
func GeneratedMarker(marker string) bool {
	if len(marker) != 1 {
		return false
	}
	for _, m := range GeneratedMarkers {
		if string(m) == marker {
			return true
		}
	}
	return false
}

// WorkItem is one trackable line of a document, identified by its tag and
// status marker.
type WorkItem struct {
	DocPath string
	// Line is the zero-based offset of the item's primary line.
	Line     int
	Tag      string
	Status   Status
	Text     string
	Children []string
}

// QueryOptionsRequest narrows a query-service lookup.
type QueryOptionsRequest struct {
	Status string
	Limit  int
}
