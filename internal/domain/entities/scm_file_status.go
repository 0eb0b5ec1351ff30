package entities

// ScmFileStatus describes a file's relationship to the working tree or the repository.
type ScmFileStatus int

const (
	StatusAdded ScmFileStatus = iota
	StatusDeleted
	StatusModified
	StatusCheckedIn
	StatusCheckedOut
	StatusConflict
	StatusPatched
	StatusUpdated
	StatusTagged
	StatusLocked
	StatusUnknown
	statusSentinel // keep last
)

//nolint:gochecknoglobals // closed lookup table
var scmFileStatusNames = [...]string{
	StatusAdded:      "added",
	StatusDeleted:    "deleted",
	StatusModified:   "modified",
	StatusCheckedIn:  "checked-in",
	StatusCheckedOut: "checked-out",
	StatusConflict:   "conflict",
	StatusPatched:    "patched",
	StatusUpdated:    "updated",
	StatusTagged:     "tagged",
	StatusLocked:     "locked",
	StatusUnknown:    "unknown",
}

func (s ScmFileStatus) String() string {
	if s < StatusAdded || s >= statusSentinel {
		return "invalid"
	}
	return scmFileStatusNames[s]
}

// IsDiff reports a change that exists only in the working tree.
func (s ScmFileStatus) IsDiff() bool {
	switch s {
	case StatusAdded, StatusDeleted, StatusModified:
		return true
	default:
		return false
	}
}

// IsStatus reports a value a status command can return.
func (s ScmFileStatus) IsStatus() bool {
	return s == StatusUnknown || s.IsDiff()
}

// IsUpdate reports the outcome of an update from the repository.
func (s ScmFileStatus) IsUpdate() bool {
	switch s {
	case StatusConflict, StatusUpdated, StatusPatched:
		return true
	default:
		return false
	}
}

// IsTransaction reports a value involving a transaction with the repository.
func (s ScmFileStatus) IsTransaction() bool {
	switch s {
	case StatusCheckedIn, StatusCheckedOut, StatusLocked, StatusTagged:
		return true
	default:
		return s.IsUpdate()
	}
}

// AllScmFileStatuses lists every member of the enumeration.
func AllScmFileStatuses() []ScmFileStatus {
	all := make([]ScmFileStatus, 0, int(statusSentinel))
	for s := StatusAdded; s < statusSentinel; s++ {
		all = append(all, s)
	}
	return all
}

// ParseScmFileStatus maps a status name back to its value.
func ParseScmFileStatus(name string) (ScmFileStatus, bool) {
	for _, s := range AllScmFileStatuses() {
		if s.String() == name {
			return s, true
		}
	}
	return StatusUnknown, false
}

// MarshalYAML renders the status by name.
func (s ScmFileStatus) MarshalYAML() (any, error) {
	return s.String(), nil
}
