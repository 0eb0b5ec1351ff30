//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"slices"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/domain/repositories"
)

// SpyRepository is the descriptor created by SpyProviderRepository.
type SpyRepository struct {
	entities.BaseRepository
	URL       string
	Delimiter rune
}

func (r *SpyRepository) String() string { return r.URL }

// SpyCall records one Execute invocation.
type SpyCall struct {
	Command entities.CommandName
	Repo    entities.RepositoryDescriptor
	FileSet entities.FileSet
	Params  *entities.CommandParameters
}

// SpyProviderRepository implements repositories.ProviderRepository as a configurable spy.
type SpyProviderRepository struct {
	// --- identity ---
	ProviderName string
	MetadataFile string
	// Supported lists the commands the spy accepts; nil accepts all of them.
	Supported []entities.CommandName

	// --- MakeRepository / MakeRepositoryFromPath ---
	RepositoryHost string
	RepositoryUser string
	MakeErr        error
	MadeURLs       []string
	MadePaths      []string

	// --- ValidateURL ---
	ValidationMessages []string

	// --- Execute ---
	Result     entities.Result
	ExecuteErr error
	Calls      []SpyCall
}

var _ repositories.ProviderRepository = (*SpyProviderRepository)(nil)

func (p *SpyProviderRepository) Name() string                { return p.ProviderName }
func (p *SpyProviderRepository) ScmSpecificFilename() string { return p.MetadataFile }

func (p *SpyProviderRepository) MakeRepository(url string, delimiter rune) (entities.RepositoryDescriptor, error) {
	p.MadeURLs = append(p.MadeURLs, url)
	if p.MakeErr != nil {
		return nil, p.MakeErr
	}
	return p.newRepository(url, delimiter), nil
}

func (p *SpyProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	p.MadePaths = append(p.MadePaths, path)
	if p.MakeErr != nil {
		return nil, p.MakeErr
	}
	return p.newRepository(path, ':'), nil
}

func (p *SpyProviderRepository) ValidateURL(_ string, _ rune) []string {
	return p.ValidationMessages
}

func (p *SpyProviderRepository) Supports(cmd entities.CommandName) bool {
	return p.Supported == nil || slices.Contains(p.Supported, cmd)
}

func (p *SpyProviderRepository) Execute(
	_ context.Context,
	cmd entities.CommandName,
	repo entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	p.Calls = append(p.Calls, SpyCall{Command: cmd, Repo: repo, FileSet: fileSet, Params: params})
	if p.ExecuteErr != nil {
		return nil, p.ExecuteErr
	}
	if p.Result != nil {
		return p.Result, nil
	}
	return entities.NewScmResult("spy "+string(cmd), "", "", true), nil
}

func (p *SpyProviderRepository) newRepository(url string, delimiter rune) *SpyRepository {
	repo := &SpyRepository{BaseRepository: entities.NewBaseRepository(), URL: url, Delimiter: delimiter}
	repo.Host = p.RepositoryHost
	repo.User = p.RepositoryUser
	return repo
}

// SpySessionProvider is a SpyProviderRepository that also keeps sessions.
type SpySessionProvider struct {
	SpyProviderRepository
	LogoutCalls int
	LogoutErr   error
}

var _ repositories.SessionProvider = (*SpySessionProvider)(nil)

func (p *SpySessionProvider) Logout(_ context.Context, _ entities.RepositoryDescriptor) (entities.Result, error) {
	p.LogoutCalls++
	if p.LogoutErr != nil {
		return nil, p.LogoutErr
	}
	return entities.NewScmResult("spy logout", "", "", true), nil
}
