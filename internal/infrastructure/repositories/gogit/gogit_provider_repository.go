// Package gogit implements the git command set in-process with go-git. It shares the
// connection string grammar of the git CLI provider and can replace it through the
// implementations setting.
package gogit

import (
	"fmt"
	"net/url"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/git"
)

const (
	providerName = "gogit"
	metadataDir  = ".git"
	remoteName   = "origin"
)

// ProviderRepository is the go-git provider.
type ProviderRepository struct {
	*base.Provider
}

// NewProviderRepository creates the go-git provider. It needs no executable.
func NewProviderRepository(_ *entities.Settings) domainRepos.ProviderRepository {
	p := &ProviderRepository{Provider: base.NewProvider(providerName)}
	p.Handle(entities.CommandAdd, p.add).
		Handle(entities.CommandBlame, p.blame).
		Handle(entities.CommandBranch, p.branch).
		Handle(entities.CommandChangeLog, p.changeLog).
		Handle(entities.CommandCheckIn, p.checkIn).
		Handle(entities.CommandCheckOut, p.checkOut).
		Handle(entities.CommandDiff, p.diff).
		Handle(entities.CommandInfo, p.info).
		Handle(entities.CommandList, p.list).
		Handle(entities.CommandRemoteInfo, p.remoteInfo).
		Handle(entities.CommandRemove, p.remove).
		Handle(entities.CommandStatus, p.status).
		Handle(entities.CommandTag, p.tag).
		Handle(entities.CommandUntag, p.untag).
		Handle(entities.CommandUpdate, p.update)
	return p
}

func (p *ProviderRepository) ScmSpecificFilename() string { return metadataDir }

func (p *ProviderRepository) MakeRepository(raw string, _ rune) (entities.RepositoryDescriptor, error) {
	repo, messages := git.ParseRepository(raw)
	if err := base.Invalid(raw, messages); err != nil {
		return nil, err
	}
	return repo, nil
}

// MakeRepositoryFromPath reads the origin remote of an existing clone.
func (p *ProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	r, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, entities.NewValidationError(path, []string{fmt.Sprintf("%s is not a git working copy: %v", path, err)})
	}
	remote, err := r.Remote(remoteName)
	if err != nil || len(remote.Config().URLs) == 0 {
		return nil, entities.NewValidationError(path, []string{"no origin remote configured"})
	}
	return p.MakeRepository(remote.Config().URLs[0], ':')
}

func (p *ProviderRepository) ValidateURL(raw string, _ rune) []string {
	_, messages := git.ParseRepository(raw)
	return messages
}

// authFor picks ssh keys or http basic auth from the descriptor credentials.
func authFor(repo *git.Repository, remoteURL string) (transport.AuthMethod, error) {
	if repo.PrivateKey != "" {
		keys, err := gitssh.NewPublicKeysFromFile("git", repo.PrivateKey, repo.Passphrase)
		if err != nil {
			return nil, entities.NewScmError("load ssh key", err)
		}
		return keys, nil
	}
	if repo.User == "" {
		return nil, nil
	}
	if parsed, err := url.Parse(remoteURL); err == nil && strings.HasPrefix(parsed.Scheme, "http") {
		return &githttp.BasicAuth{Username: repo.User, Password: repo.Password}, nil
	}
	return nil, nil
}
