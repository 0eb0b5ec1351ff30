package entities

import (
	"fmt"
	"strings"
	"time"
)

const (
	// TimestampLayout is the primary historical changelog timestamp format.
	TimestampLayout = "2006/01/02 15:04:05"
	// TimestampLayoutAlt is the secondary historical changelog timestamp format.
	TimestampLayoutAlt = "2006-01-02 15:04:05"
	// DateLayout is used when rendering only the day of a change set.
	DateLayout = "2006-01-02"
)

// DateFormatError is returned when a timestamp matches none of the accepted layouts.
type DateFormatError struct {
	Value   string
	Layouts []string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("unable to parse date %q: expected one of the layouts %s",
		e.Value, strings.Join(e.Layouts, ", "))
}

// ParseChangeSetDate parses value with userLayout first (when non-empty), then with the
// two historical timestamp layouts. Times are interpreted in UTC.
func ParseChangeSetDate(value, userLayout string) (time.Time, error) {
	layouts := make([]string, 0, 3)
	if userLayout != "" {
		layouts = append(layouts, userLayout)
	}
	layouts = append(layouts, TimestampLayout, TimestampLayoutAlt)

	trimmed := strings.TrimSpace(value)
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, &DateFormatError{Value: value, Layouts: layouts}
}

// FormatTimestamp renders t with the primary layout; ParseChangeSetDate reads it back.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ChangeFile is one file entry of a change set.
type ChangeFile struct {
	Name             string        `yaml:"name"`
	Revision         string        `yaml:"revision,omitempty"`
	Action           ScmFileStatus `yaml:"action"`
	OriginalName     string        `yaml:"originalName,omitempty"`
	OriginalRevision string        `yaml:"originalRevision,omitempty"`
}

func NewChangeFile(name, revision string) ChangeFile {
	return ChangeFile{Name: name, Revision: revision, Action: StatusUnknown}
}

func (f ChangeFile) String() string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	if f.Revision != "" {
		sb.WriteString(", ")
		sb.WriteString(f.Revision)
	}
	if f.OriginalName != "" {
		sb.WriteString(" (from ")
		sb.WriteString(f.OriginalName)
		if f.OriginalRevision != "" {
			sb.WriteString("@")
			sb.WriteString(f.OriginalRevision)
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// ChangeSet is one commit record.
type ChangeSet struct {
	Author   string       `yaml:"author"`
	Date     time.Time    `yaml:"date"`
	Comment  string       `yaml:"comment"`
	Revision string       `yaml:"revision,omitempty"`
	Files    []ChangeFile `yaml:"files"`
}

// SetDate parses value as in ParseChangeSetDate and stores it.
func (c *ChangeSet) SetDate(value, userLayout string) error {
	parsed, err := ParseChangeSetDate(value, userLayout)
	if err != nil {
		return err
	}
	c.Date = parsed
	return nil
}

// AddFile appends an entry to the change set.
func (c *ChangeSet) AddFile(file ChangeFile) {
	c.Files = append(c.Files, file)
}

// ContainsFilename reports whether the change set touches the named file.
func (c *ChangeSet) ContainsFilename(name string) bool {
	for _, f := range c.Files {
		if f.Name == name {
			return true
		}
	}
	return false
}

// DateFormatted renders the day of the change set.
func (c *ChangeSet) DateFormatted() string {
	return c.Date.Format(DateLayout)
}

func (c *ChangeSet) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Author: %s\nDate: %s\n", c.Author, FormatTimestamp(c.Date))
	if c.Revision != "" {
		fmt.Fprintf(&sb, "Revision: %s\n", c.Revision)
	}
	for _, f := range c.Files {
		fmt.Fprintf(&sb, "File: %s\n", f)
	}
	fmt.Fprintf(&sb, "Comment: %s\n", c.Comment)
	return sb.String()
}

// ChangeLogSet is the history returned by a changelog command.
type ChangeLogSet struct {
	ChangeSets   []ChangeSet `yaml:"changeSets"`
	StartDate    time.Time   `yaml:"startDate,omitempty"`
	EndDate      time.Time   `yaml:"endDate,omitempty"`
	StartVersion ScmVersion  `yaml:"-"`
	EndVersion   ScmVersion  `yaml:"-"`
}

// FilterByDate keeps only change sets inside [start, end]. Zero bounds are open.
func (s *ChangeLogSet) FilterByDate(start, end time.Time) {
	kept := s.ChangeSets[:0]
	for _, cs := range s.ChangeSets {
		if !start.IsZero() && cs.Date.Before(start) {
			continue
		}
		if !end.IsZero() && cs.Date.After(end) {
			continue
		}
		kept = append(kept, cs)
	}
	s.ChangeSets = kept
}
