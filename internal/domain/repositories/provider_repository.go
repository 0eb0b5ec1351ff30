package repositories

import (
	"context"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// ProviderRepository abstracts one backing version-control system (Subversion, Git,
// Mercurial, AccuRev, ...). Each implementation owns its connection string grammar and
// translates the abstract command set into tool invocations.
type ProviderRepository interface {
	// Name returns the provider tag (e.g. "svn", "git", "accurev").
	Name() string

	// ScmSpecificFilename returns the metadata file or directory marking a working copy.
	ScmSpecificFilename() string

	// MakeRepository parses the provider-specific part of a connection string. The returned
	// error is an *entities.ValidationError listing every violated constraint.
	MakeRepository(url string, delimiter rune) (entities.RepositoryDescriptor, error)

	// MakeRepositoryFromPath builds a descriptor for an existing working copy.
	MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error)

	// ValidateURL returns every problem with the provider-specific part of a connection string.
	ValidateURL(url string, delimiter rune) []string

	// Supports reports whether the provider implements cmd.
	Supports(cmd entities.CommandName) bool

	// Execute runs cmd. A tool run that fails is reported through the result; the error is
	// reserved for structural failures (unsupported command, bad descriptor, launch failure,
	// missing parameters).
	Execute(
		ctx context.Context,
		cmd entities.CommandName,
		repo entities.RepositoryDescriptor,
		fileSet entities.FileSet,
		params *entities.CommandParameters,
	) (entities.Result, error)
}

// SessionProvider is implemented by providers whose login establishes a session that must
// be closed explicitly. Sessions never expire on their own.
type SessionProvider interface {
	Logout(ctx context.Context, repo entities.RepositoryDescriptor) (entities.Result, error)
}
