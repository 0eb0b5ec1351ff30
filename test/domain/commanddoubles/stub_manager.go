//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/scmforge/internal/domain/commands"
	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// ExecuteCall records one Execute invocation of the stub.
type ExecuteCall struct {
	Command entities.CommandName
	Repo    *entities.ScmRepository
	FileSet entities.FileSet
	Params  *entities.CommandParameters
}

// StubManager is a stub implementation of commands.Manager.
type StubManager struct {
	Repository      *entities.ScmRepository
	MakeErr         error
	MadeURLs        []string
	Validation      []string
	Result          entities.Result
	ExecuteErr      error
	ExecuteCalls    []ExecuteCall
	LogoutCallCount int
	ProviderInfos   []commands.ProviderInfo
}

var _ commands.Manager = (*StubManager)(nil)

// Factory returns a ManagerFactory that always yields the stub.
func (s *StubManager) Factory() commands.ManagerFactory {
	return func(string) (commands.Manager, error) { return s, nil }
}

func (s *StubManager) MakeScmRepository(url string) (*entities.ScmRepository, error) {
	s.MadeURLs = append(s.MadeURLs, url)
	return s.Repository, s.MakeErr
}

func (s *StubManager) MakeProviderScmRepository(_, path string) (*entities.ScmRepository, error) {
	s.MadeURLs = append(s.MadeURLs, path)
	return s.Repository, s.MakeErr
}

func (s *StubManager) ValidateScmRepository(_ string) []string { return s.Validation }

func (s *StubManager) Execute(
	_ context.Context,
	cmd entities.CommandName,
	repo *entities.ScmRepository,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	s.ExecuteCalls = append(s.ExecuteCalls, ExecuteCall{Command: cmd, Repo: repo, FileSet: fileSet, Params: params})
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	return s.Result, nil
}

func (s *StubManager) Logout(_ context.Context, _ *entities.ScmRepository) (entities.Result, error) {
	s.LogoutCallCount++
	return entities.NewScmResult("", "", "", true), nil
}

func (s *StubManager) Providers() []commands.ProviderInfo { return s.ProviderInfos }
