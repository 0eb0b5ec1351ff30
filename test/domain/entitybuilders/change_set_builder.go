//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"time"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// ChangeSetBuilder helps create test change sets with a fluent interface.
type ChangeSetBuilder struct {
	*testkit.BaseBuilder
	author   string
	date     time.Time
	comment  string
	revision string
	files    []entities.ChangeFile
}

// NewChangeSetBuilder creates a new change set builder with sensible defaults.
func NewChangeSetBuilder() *ChangeSetBuilder {
	return &ChangeSetBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		author:      "alice",
		date:        time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC),
		comment:     "initial import",
		revision:    "1",
	}
}

// WithAuthor sets the author.
func (b *ChangeSetBuilder) WithAuthor(author string) *ChangeSetBuilder {
	b.author = author
	return b
}

// WithDate sets the commit date.
func (b *ChangeSetBuilder) WithDate(date time.Time) *ChangeSetBuilder {
	b.date = date
	return b
}

// WithComment sets the commit message.
func (b *ChangeSetBuilder) WithComment(comment string) *ChangeSetBuilder {
	b.comment = comment
	return b
}

// WithRevision sets the revision.
func (b *ChangeSetBuilder) WithRevision(revision string) *ChangeSetBuilder {
	b.revision = revision
	return b
}

// WithFile adds a changed file at the change set revision.
func (b *ChangeSetBuilder) WithFile(name string, action entities.ScmFileStatus) *ChangeSetBuilder {
	file := entities.NewChangeFile(name, b.revision)
	file.Action = action
	b.files = append(b.files, file)
	return b
}

// Build creates the change set (satisfies testkit.Builder interface).
func (b *ChangeSetBuilder) Build() interface{} {
	return b.BuildChangeSet()
}

// BuildChangeSet creates the change set with a concrete return type.
func (b *ChangeSetBuilder) BuildChangeSet() entities.ChangeSet {
	set := entities.ChangeSet{
		Author:   b.author,
		Date:     b.date,
		Comment:  b.comment,
		Revision: b.revision,
	}
	for _, f := range b.files {
		set.AddFile(f)
	}
	return set
}

// Reset clears the builder state, allowing it to be reused.
func (b *ChangeSetBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	fresh := NewChangeSetBuilder()
	b.author, b.date, b.comment, b.revision, b.files = fresh.author, fresh.date, fresh.comment, fresh.revision, nil
	return b
}

// Clone creates a deep copy of the ChangeSetBuilder.
func (b *ChangeSetBuilder) Clone() testkit.Builder {
	return &ChangeSetBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		author:      b.author,
		date:        b.date,
		comment:     b.comment,
		revision:    b.revision,
		files:       append([]entities.ChangeFile(nil), b.files...),
	}
}
