package coordinator

import "github.com/mrlokans/jelu-importer/internal/entities"

type Phase string

const (
	PhaseNoBook            Phase = "no_book"
	PhaseExtracted         Phase = "extracted"
	PhaseCheckingDuplicate Phase = "checking_duplicate"
	PhaseReadyToImport     Phase = "ready_to_import"
	PhaseImporting         Phase = "importing"
	PhaseAlreadyImported   Phase = "already_imported"
	PhaseImported          Phase = "imported"
	PhaseError             Phase = "error"
)

// Action is something the user may trigger in the current state.
type Action string

const (
	ActionScrape Action = "scrape"
	ActionImport Action = "import"
	ActionView   Action = "view"
)

// State is the complete import state. Transition functions take a State and
// return the next one; they never mutate their input.
type State struct {
	Phase  Phase                `json:"phase"`
	Record *entities.BookRecord `json:"record,omitempty"`
	// RemoteID is the user book id for AlreadyImported and Imported.
	RemoteID string `json:"remote_id,omitempty"`
	// Reason is the failure message for Error.
	Reason    string `json:"reason,omitempty"`
	Connected bool   `json:"connected"`
	// Cycle increases with every extraction or reset; results carrying an
	// older cycle are stale.
	Cycle uint64 `json:"cycle"`
}

// Initial is the state before anything has been extracted.
func Initial() State {
	return State{Phase: PhaseNoBook}
}

// Actions lists what the user may do now. Import is never offered while a
// duplicate check is outstanding.
func (s State) Actions() []Action {
	switch s.Phase {
	case PhaseNoBook:
		return []Action{ActionScrape}
	case PhaseReadyToImport, PhaseError:
		if s.Connected && s.Record != nil {
			return []Action{ActionImport}
		}
	case PhaseAlreadyImported, PhaseImported:
		if s.RemoteID != "" {
			return []Action{ActionView}
		}
	}
	return []Action{}
}

// Allows reports whether a is currently offered.
func (s State) Allows(a Action) bool {
	for _, candidate := range s.Actions() {
		if candidate == a {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	if s.Record != nil {
		r := s.Record.Clone()
		s.Record = &r
	}
	return s
}
