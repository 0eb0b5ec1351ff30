// Package synergy implements a provider wrapping the CM Synergy "ccm" command line client.
// A login starts an engine session whose CCM_ADDR is passed to every later call.
package synergy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/process"
)

const (
	providerName = "synergy"
	metadataFile = "_ccmwaid.inf"
	defaultRole  = "developer"
)

// Repository names a Synergy project in a database, opened as user with role.
type Repository struct {
	entities.BaseRepository
	ProjectSpec string
	Database    string
	Role        string
	// CcmAddr is the session address returned by ccm start.
	CcmAddr string

	delimiter rune
}

func (r *Repository) String() string {
	return strings.Join([]string{r.ProjectSpec, r.Database, r.User, r.Role}, string(r.delimiter))
}

// ParseRepository parses "projectSpec<d>database[<d>user[<d>role]]". The user defaults to
// $USER and the role to "developer".
func ParseRepository(raw string, delimiter rune) (*Repository, []string) {
	parts := base.SplitURL(strings.TrimSpace(raw), delimiter)
	var messages []string
	if len(parts) < 2 || len(parts) > 4 {
		return nil, []string{fmt.Sprintf("a synergy url needs 2 to 4 fields, got %d", len(parts))}
	}
	repo := &Repository{
		BaseRepository: entities.NewBaseRepository(),
		ProjectSpec:    parts[0],
		Database:       parts[1],
		Role:           defaultRole,
		delimiter:      delimiter,
	}
	repo.User = os.Getenv("USER")
	if len(parts) > 2 && parts[2] != "" {
		repo.User = parts[2]
	}
	if len(parts) > 3 && parts[3] != "" {
		repo.Role = parts[3]
	}
	if repo.ProjectSpec == "" {
		messages = append(messages, "the project specification must not be empty")
	} else if !strings.Contains(repo.ProjectSpec, "~") && !strings.Contains(repo.ProjectSpec, "-") {
		messages = append(messages, fmt.Sprintf("the project specification %q has no version (name~version)", repo.ProjectSpec))
	}
	if repo.Database == "" {
		messages = append(messages, "the database must not be empty")
	}
	if len(messages) > 0 {
		return nil, messages
	}
	return repo, nil
}

// ProviderRepository is the CM Synergy provider.
type ProviderRepository struct {
	*base.Provider
	tool *base.Tool
}

// NewProviderRepository creates the synergy provider using the executable configured in settings.
func NewProviderRepository(settings *entities.Settings) domainRepos.ProviderRepository {
	p := &ProviderRepository{
		Provider: base.NewProvider(providerName),
		tool:     base.NewTool(providerName, settings.Executable(providerName, "ccm")),
	}
	p.Handle(entities.CommandAdd, p.add).
		Handle(entities.CommandCheckIn, p.checkIn).
		Handle(entities.CommandCheckOut, p.checkOut).
		Handle(entities.CommandEdit, p.edit).
		Handle(entities.CommandLogin, p.login).
		Handle(entities.CommandRemove, p.remove).
		Handle(entities.CommandStatus, p.status).
		Handle(entities.CommandTag, p.tag).
		Handle(entities.CommandUnedit, p.unedit).
		Handle(entities.CommandUpdate, p.update)
	return p
}

func (p *ProviderRepository) ScmSpecificFilename() string { return metadataFile }

func (p *ProviderRepository) MakeRepository(raw string, delimiter rune) (entities.RepositoryDescriptor, error) {
	repo, messages := ParseRepository(raw, delimiter)
	if err := base.Invalid(raw, messages); err != nil {
		return nil, err
	}
	return repo, nil
}

// MakeRepositoryFromPath reads the project and database recorded in _ccmwaid.inf.
func (p *ProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	if err := base.RequireWorkingCopy(path, metadataFile); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(path, metadataFile))
	if err != nil {
		return nil, entities.NewScmError("read work area marker", err)
	}
	values := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		if key, value, found := strings.Cut(line, "="); found {
			values[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	project := values["name"]
	if version := values["version"]; version != "" {
		project += "~" + version
	}
	return p.MakeRepository(project+":"+values["database"], ':')
}

func (p *ProviderRepository) ValidateURL(raw string, delimiter rune) []string {
	_, messages := ParseRepository(raw, delimiter)
	return messages
}

// Logout stops the engine session.
func (p *ProviderRepository) Logout(ctx context.Context, repoD entities.RepositoryDescriptor) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	if repo.CcmAddr == "" {
		return entities.NewScmResult("", "No synergy session to stop.", "", true), nil
	}
	exec, err := p.run(ctx, repo, "", "stop")
	if err != nil {
		return nil, err
	}
	repo.CcmAddr = ""
	return exec.Result, nil
}

func (p *ProviderRepository) command(repo *Repository, dir, sub string, args ...string) *process.Commandline {
	cl := p.tool.Command(dir, sub).Arg(args...)
	if repo.CcmAddr != "" {
		cl.SetEnv("CCM_ADDR", repo.CcmAddr)
	}
	return cl
}

func (p *ProviderRepository) run(
	ctx context.Context,
	repo *Repository,
	dir, sub string,
	args ...string,
) (*base.Execution, error) {
	return p.tool.Run(ctx, p.command(repo, dir, sub, args...), nil, process.DefaultPolicy)
}
