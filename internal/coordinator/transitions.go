package coordinator

import "github.com/mrlokans/jelu-importer/internal/entities"

// StartCycle opens a new extraction cycle. The held record is withdrawn so
// nothing can be imported until the new extraction lands, and results of
// earlier cycles become stale.
func StartCycle(s State) State {
	return State{Phase: PhaseNoBook, Connected: s.Connected, Cycle: s.Cycle + 1}
}

// OnExtracted stores a freshly extracted record.
func OnExtracted(s State, record entities.BookRecord) State {
	r := record.Clone()
	return State{
		Phase:     PhaseExtracted,
		Record:    &r,
		Connected: s.Connected,
		Cycle:     s.Cycle,
	}
}

// AfterExtracted moves on from Extracted: to CheckingDuplicate when a session
// is live and the record has an identifier, otherwise straight to
// ReadyToImport (import disabled without a session).
func AfterExtracted(s State) State {
	s = s.clone()
	s.RemoteID = ""
	s.Reason = ""
	if s.Connected && s.Record != nil && s.Record.HasIdentifier() {
		s.Phase = PhaseCheckingDuplicate
	} else {
		s.Phase = PhaseReadyToImport
	}
	return s
}

// OnExtractionFailed keeps the coordinator in NoBook with a retry offered.
func OnExtractionFailed(s State) State {
	return State{Phase: PhaseNoBook, Connected: s.Connected, Cycle: s.Cycle}
}

// OnDuplicateChecked resolves a duplicate check. A lookup error is treated as
// "not imported yet".
func OnDuplicateChecked(s State, existing *entities.ExistingBook, err error) State {
	s = s.clone()
	if err == nil && existing != nil && existing.ID != "" {
		s.Phase = PhaseAlreadyImported
		s.RemoteID = existing.ID
		return s
	}
	s.Phase = PhaseReadyToImport
	return s
}

// OnImportStarted marks an import in flight. No actions are offered meanwhile.
func OnImportStarted(s State) State {
	s = s.clone()
	s.Phase = PhaseImporting
	s.Reason = ""
	return s
}

// OnImportSucceeded records the created user book.
func OnImportSucceeded(s State, imported entities.ImportedBook) State {
	s = s.clone()
	s.Phase = PhaseImported
	s.RemoteID = imported.ID
	s.Reason = ""
	return s
}

// OnImportFailed keeps the record so the import can be retried.
func OnImportFailed(s State, reason string) State {
	s = s.clone()
	s.Phase = PhaseError
	s.Reason = reason
	return s
}

// Reset returns to NoBook, as on logout or navigation to a page without a record.
// In-flight results are invalidated.
func Reset(s State) State {
	return State{Phase: PhaseNoBook, Connected: s.Connected, Cycle: s.Cycle + 1}
}

// OnSessionChanged applies a new session (or its loss). Any result tied to
// the previous session is dropped and a held record is re-evaluated as if
// freshly extracted.
func OnSessionChanged(s State, connected bool) State {
	s = s.clone()
	s.Connected = connected
	s.Cycle++

	if s.Record == nil {
		s.Phase = PhaseNoBook
		s.RemoteID = ""
		s.Reason = ""
		return s
	}
	return AfterExtracted(s)
}
