package reconciler

import "github.com/slink-ws/asciidoc2confluence/pkg/document"

// Action is the remote mutation chosen for one document.
type Action int

// Actions.
const (
	// ActionCreate publishes a new page.
	ActionCreate Action = iota
	// ActionUpdate replaces the body of the page matched by title.
	ActionUpdate
	// ActionRename updates the page matched by the old title, retitling it.
	ActionRename
	// ActionDelete removes the page of a hidden document.
	ActionDelete
	// ActionSkipHidden leaves a hidden document with no remote page alone.
	ActionSkipHidden
)

var actionNames = map[Action]string{
	ActionCreate:     "create",
	ActionUpdate:     "update",
	ActionRename:     "rename",
	ActionDelete:     "delete",
	ActionSkipHidden: "skip_hidden",
}

// String returns the action name.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Match is the remote page a document resolved to. A zero Match means no
// page was found under any lookup title.
type Match struct {
	ID    string
	Title string
}

// Found reports whether a page was resolved.
func (m Match) Found() bool {
	return m.ID != ""
}

// Decide chooses exactly one action for doc given what resolution found.
func Decide(doc *document.Document, match Match) Action {
	switch {
	case !match.Found() && doc.Hidden:
		return ActionSkipHidden
	case !match.Found():
		return ActionCreate
	case doc.Hidden:
		return ActionDelete
	case match.Title != doc.Title:
		return ActionRename
	default:
		return ActionUpdate
	}
}
