// Package integrity implements a provider wrapping the MKS Integrity "si" command line client.
package integrity

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/process"
)

const (
	providerName = "integrity"
	sandboxFile  = "project.pj"
	// fieldsDelim separates the columns requested with --fields.
	fieldsDelim = "\t"
)

// Repository addresses an Integrity project configuration path on a server.
type Repository struct {
	entities.BaseRepository
	ConfigPath string
	Connected  bool
}

func (r *Repository) String() string {
	if r.Host == "" {
		return r.ConfigPath
	}
	server := r.Host
	if r.Port > 0 {
		server += ":" + strconv.Itoa(r.Port)
	}
	if r.User != "" {
		server = r.User + "@" + server
	}
	return server + "|" + r.ConfigPath
}

// ParseRepository parses "[user[/pass]@host[:port]]|configPath". The separator is always '|'
// because configuration paths contain ':' and '#'.
func ParseRepository(raw string) (*Repository, []string) {
	parts := base.SplitURL(strings.TrimSpace(raw), '|')
	repo := &Repository{BaseRepository: entities.NewBaseRepository()}
	var messages []string
	switch len(parts) {
	case 1:
		repo.ConfigPath = parts[0]
	case 2:
		if parts[0] != "" {
			info, infoMessages := entities.ParseUserInfo(parts[0])
			messages = append(messages, infoMessages...)
			repo.User, repo.Password, repo.Host, repo.Port = info.User, info.Password, info.Host, info.Port
		}
		repo.ConfigPath = parts[1]
	default:
		messages = append(messages, fmt.Sprintf("too many integrity url fields: %d", len(parts)))
	}
	if repo.ConfigPath == "" && len(parts) <= 2 {
		messages = append(messages, "the project configuration path must not be empty")
	}
	if len(messages) > 0 {
		return nil, messages
	}
	return repo, nil
}

// ProviderRepository is the MKS Integrity provider.
type ProviderRepository struct {
	*base.Provider
	tool *base.Tool
}

// NewProviderRepository creates the integrity provider using the executable configured in settings.
func NewProviderRepository(settings *entities.Settings) domainRepos.ProviderRepository {
	p := &ProviderRepository{
		Provider: base.NewProvider(providerName),
		tool:     base.NewTool(providerName, settings.Executable(providerName, "si")),
	}
	p.Handle(entities.CommandAdd, p.add).
		Handle(entities.CommandCheckIn, p.checkIn).
		Handle(entities.CommandCheckOut, p.checkOut).
		Handle(entities.CommandEdit, p.edit).
		Handle(entities.CommandList, p.list).
		Handle(entities.CommandLogin, p.login).
		Handle(entities.CommandRemove, p.remove).
		Handle(entities.CommandStatus, p.status).
		Handle(entities.CommandTag, p.tag).
		Handle(entities.CommandUnedit, p.unedit)
	return p
}

func (p *ProviderRepository) ScmSpecificFilename() string { return sandboxFile }

func (p *ProviderRepository) MakeRepository(raw string, _ rune) (entities.RepositoryDescriptor, error) {
	repo, messages := ParseRepository(raw)
	if err := base.Invalid(raw, messages); err != nil {
		return nil, err
	}
	return repo, nil
}

// MakeRepositoryFromPath asks si which project a sandbox belongs to.
func (p *ProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	if err := base.RequireWorkingCopy(path, sandboxFile); err != nil {
		return nil, err
	}
	repo := &Repository{BaseRepository: entities.NewBaseRepository()}
	exec, err := p.run(context.Background(), repo, path, "sandboxinfo",
		"--sandbox="+filepath.Join(path, sandboxFile))
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(exec.Stdout, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		switch {
		case !found:
		case key == "Project Name", key == "Project":
			repo.ConfigPath = strings.TrimSpace(value)
		case key == "Server":
			info, _ := entities.ParseUserInfo(strings.TrimSpace(value))
			repo.Host, repo.Port = info.Host, info.Port
		}
	}
	if !exec.Success() || repo.ConfigPath == "" {
		return nil, entities.NewValidationError(path, []string{fmt.Sprintf("%s is not an integrity sandbox", path)})
	}
	return repo, nil
}

func (p *ProviderRepository) ValidateURL(raw string, _ rune) []string {
	_, messages := ParseRepository(raw)
	return messages
}

// Logout disconnects the client from the server.
func (p *ProviderRepository) Logout(ctx context.Context, repoD entities.RepositoryDescriptor) (entities.Result, error) {
	repo, err := entities.DescriptorAs[*Repository](repoD)
	if err != nil {
		return nil, err
	}
	exec, err := p.run(ctx, repo, "", "disconnect", "--yes")
	if err != nil {
		return nil, err
	}
	repo.Connected = false
	return exec.Result, nil
}

// command builds an si invocation; the connection options follow the sub-command.
func (p *ProviderRepository) command(repo *Repository, dir, sub string, args ...string) *process.Commandline {
	cl := p.tool.Command(dir, sub)
	if repo.Host != "" {
		cl.Arg("--hostname=" + repo.Host)
	}
	if repo.Port > 0 {
		cl.Arg("--port=" + strconv.Itoa(repo.Port))
	}
	if repo.User != "" {
		cl.Arg("--user=" + repo.User)
	}
	if repo.Password != "" {
		cl.Arg("--password=" + repo.Password).Mask(repo.Password)
	}
	return cl.Arg(args...)
}

func (p *ProviderRepository) run(
	ctx context.Context,
	repo *Repository,
	dir, sub string,
	args ...string,
) (*base.Execution, error) {
	return p.tool.Run(ctx, p.command(repo, dir, sub, args...), nil, process.DefaultPolicy)
}
