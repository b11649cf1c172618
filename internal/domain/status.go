package domain

// EntryKind differentiates tickets from service requests.
type EntryKind string

const (
	KindTicket         EntryKind = "ticket"
	KindServiceRequest EntryKind = "service-request"
)

// IsValid reports whether the kind is known.
func (k EntryKind) IsValid() bool {
	return k == KindTicket || k == KindServiceRequest
}

// Status enumerates lifecycle values for both kinds.
type Status string

const (
	StatusNew        Status = "New"
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusClosed     Status = "Closed"
	StatusCompleted  Status = "Completed"
)

// Normalize folds the legacy ticket "Open" value onto "New".
func (s Status) Normalize() Status {
	if s == StatusOpen {
		return StatusNew
	}
	return s
}

// Vocabulary describes the three-stage status shape of one kind.
type Vocabulary struct {
	Initial      Status
	Intermediate Status
	Terminal     Status
	Aliases      map[Status]Status
}

var vocabularies = map[EntryKind]Vocabulary{
	KindTicket: {
		Initial:      StatusNew,
		Intermediate: StatusInProgress,
		Terminal:     StatusClosed,
		Aliases:      map[Status]Status{StatusOpen: StatusNew},
	},
	KindServiceRequest: {
		Initial:      StatusNew,
		Intermediate: StatusInProgress,
		Terminal:     StatusCompleted,
	},
}

// VocabularyOf returns the status vocabulary for a kind.
func VocabularyOf(kind EntryKind) (Vocabulary, bool) {
	v, ok := vocabularies[kind]
	return v, ok
}

// Canonical maps a status onto its canonical member of the vocabulary.
// The second result is false when the status does not belong to the kind.
func (v Vocabulary) Canonical(s Status) (Status, bool) {
	if alias, ok := v.Aliases[s]; ok {
		s = alias
	}
	switch s {
	case v.Initial, v.Intermediate, v.Terminal:
		return s, true
	}
	return "", false
}

// IsTerminal reports whether s is the terminal value of this vocabulary.
func (v Vocabulary) IsTerminal(s Status) bool {
	c, ok := v.Canonical(s)
	return ok && c == v.Terminal
}

// IsInitial reports whether s is the initial value (or an alias of it).
func (v Vocabulary) IsInitial(s Status) bool {
	c, ok := v.Canonical(s)
	return ok && c == v.Initial
}
