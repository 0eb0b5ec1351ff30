package entities

import "fmt"

const (
	VersionTypeBranch   = "Branch"
	VersionTypeTag      = "Tag"
	VersionTypeRevision = "Revision"
)

// ScmVersion is a named point in the history of a repository.
type ScmVersion interface {
	Name() string
	Type() string
}

// ScmBranch is a version that follows the head of a branch.
type ScmBranch struct{ name string }

// ScmTag is a version pinned to a tag.
type ScmTag struct{ name string }

// ScmRevision is a version pinned to a provider revision identifier.
type ScmRevision struct{ name string }

func NewScmBranch(name string) *ScmBranch     { return &ScmBranch{name: name} }
func NewScmTag(name string) *ScmTag           { return &ScmTag{name: name} }
func NewScmRevision(name string) *ScmRevision { return &ScmRevision{name: name} }

func (b *ScmBranch) Name() string   { return b.name }
func (b *ScmBranch) Type() string   { return VersionTypeBranch }
func (b *ScmBranch) String() string { return b.name }

func (t *ScmTag) Name() string   { return t.name }
func (t *ScmTag) Type() string   { return VersionTypeTag }
func (t *ScmTag) String() string { return t.name }

func (r *ScmRevision) Name() string   { return r.name }
func (r *ScmRevision) Type() string   { return VersionTypeRevision }
func (r *ScmRevision) String() string { return r.name }

// NewScmVersion builds a version from a kind ("branch", "tag" or "revision") and a name.
func NewScmVersion(kind, name string) (ScmVersion, error) {
	switch kind {
	case "branch":
		return NewScmBranch(name), nil
	case "tag":
		return NewScmTag(name), nil
	case "revision", "":
		return NewScmRevision(name), nil
	default:
		return nil, fmt.Errorf("unknown version type %q (expected branch, tag or revision)", kind)
	}
}

// IsEmptyVersion reports whether v carries no usable name.
func IsEmptyVersion(v ScmVersion) bool {
	return v == nil || v.Name() == ""
}

// TagParameters holds provider hints used when creating a tag.
type TagParameters struct {
	Message     string
	RemoteTag   bool
	PinExternal bool
}

// BranchParameters holds provider hints used when creating a branch.
type BranchParameters struct {
	Message      string
	RemoteBranch bool
	PinExternal  bool
}
