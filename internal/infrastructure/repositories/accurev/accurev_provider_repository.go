// Package accurev implements a provider wrapping the AccuRev command line client. Login
// establishes a session token that later calls attach; the session lasts until Logout.
package accurev

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/process"
	"github.com/rios0rios0/scmforge/internal/xmlstream"
)

const (
	providerName = "accurev"
	metadataDir  = ".accurev"

	// CheckoutMkws creates a workspace on the stream; CheckoutPop only populates files.
	CheckoutMkws = "mkws"
	CheckoutPop  = "pop"
)

// Repository addresses a stream of a depot, optionally through a named workspace.
type Repository struct {
	entities.BaseRepository
	Depot          string
	StreamName     string
	WorkspaceName  string
	CheckoutMethod string

	// Token and Home hold the login session. They are set by the login command.
	Token string
	Home  string

	delimiter rune
}

func (r *Repository) String() string {
	parts := []string{r.Depot, r.StreamName, r.WorkspaceName}
	if r.Host != "" {
		server := r.Host
		if r.Port > 0 {
			server += ":" + strconv.Itoa(r.Port)
		}
		if r.User != "" {
			server = r.User + "@" + server
		}
		parts = append([]string{server}, parts...)
	}
	return strings.Join(parts, string(r.delimiter))
}

// Server renders the -H value, or "" when the client default server is used.
func (r *Repository) Server() string {
	if r.Host == "" {
		return ""
	}
	if r.Port > 0 {
		return r.Host + ":" + strconv.Itoa(r.Port)
	}
	return r.Host
}

// ParseRepository parses "[user[/pass]@host[:port]<d>]depot<d>stream<d>[workspace][?k=v]".
// With three fields the first is taken as the server only when it carries '@' or ':'.
// With the ':' delimiter a numeric second field is the port of the server in the first.
func ParseRepository(raw string, delimiter rune) (*Repository, []string) {
	rest, query, err := entities.SplitQuery(strings.TrimSpace(raw))
	var messages []string
	if err != nil {
		messages = append(messages, err.Error())
	}
	parts := joinServerPort(base.SplitURL(rest, delimiter), delimiter)

	repo := &Repository{BaseRepository: entities.NewBaseRepository(), CheckoutMethod: CheckoutMkws, delimiter: delimiter}
	if len(parts) == 4 || (len(parts) == 3 && strings.ContainsAny(parts[0], "@:")) {
		info, infoMessages := entities.ParseUserInfo(parts[0])
		messages = append(messages, infoMessages...)
		repo.User, repo.Password, repo.Host, repo.Port = info.User, info.Password, info.Host, info.Port
		parts = parts[1:]
	}
	switch {
	case len(parts) < 2:
		messages = append(messages, "an accurev url needs at least a depot and a stream")
	case len(parts) > 3:
		messages = append(messages, fmt.Sprintf("too many accurev url fields: %d", len(parts)))
	default:
		repo.Depot, repo.StreamName = parts[0], parts[1]
		if len(parts) == 3 {
			repo.WorkspaceName = parts[2]
		}
		if repo.Depot == "" {
			messages = append(messages, "the depot must not be empty")
		}
		if repo.StreamName == "" {
			messages = append(messages, "the stream must not be empty")
		}
	}

	for _, key := range sortedKeys(query) {
		switch key {
		case "checkoutMethod":
			repo.CheckoutMethod = query.Get(key)
			if repo.CheckoutMethod != CheckoutMkws && repo.CheckoutMethod != CheckoutPop {
				messages = append(messages, fmt.Sprintf("unknown checkout method %q", repo.CheckoutMethod))
			}
		default:
			messages = append(messages, fmt.Sprintf("unknown accurev url parameter %q", key))
		}
	}
	if len(messages) > 0 {
		return nil, messages
	}
	return repo, nil
}

// joinServerPort merges "host" and "5050" back into "host:5050" when a ':' delimiter split
// them. A field that does not parse as an integer stays a token.
func joinServerPort(parts []string, delimiter rune) []string {
	if delimiter != ':' || len(parts) < 4 || parts[0] == "" {
		return parts
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return parts
	}
	return append([]string{parts[0] + ":" + parts[1]}, parts[2:]...)
}

func sortedKeys(query url.Values) []string {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ProviderRepository is the AccuRev provider.
type ProviderRepository struct {
	*base.Provider
	tool *base.Tool
}

// NewProviderRepository creates the accurev provider using the executable configured in settings.
func NewProviderRepository(settings *entities.Settings) domainRepos.ProviderRepository {
	return newProviderRepository(settings)
}

func newProviderRepository(settings *entities.Settings) *ProviderRepository {
	p := &ProviderRepository{
		Provider: base.NewProvider(providerName),
		tool:     base.NewTool(providerName, settings.Executable(providerName, "accurev")),
	}
	p.Handle(entities.CommandAdd, p.add).
		Handle(entities.CommandChangeLog, p.changeLog).
		Handle(entities.CommandCheckIn, p.checkIn).
		Handle(entities.CommandCheckOut, p.checkOut).
		Handle(entities.CommandExport, p.export).
		Handle(entities.CommandInfo, p.info).
		Handle(entities.CommandList, p.list).
		Handle(entities.CommandLogin, p.login).
		Handle(entities.CommandRemove, p.remove).
		Handle(entities.CommandStatus, p.status).
		Handle(entities.CommandTag, p.tag).
		Handle(entities.CommandUpdate, p.update)
	return p
}

func (p *ProviderRepository) ScmSpecificFilename() string { return metadataDir }

func (p *ProviderRepository) MakeRepository(raw string, delimiter rune) (entities.RepositoryDescriptor, error) {
	repo, messages := ParseRepository(raw, delimiter)
	if err := base.Invalid(raw, messages); err != nil {
		return nil, err
	}
	return repo, nil
}

// MakeRepositoryFromPath asks accurev info which workspace path belongs to.
func (p *ProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, entities.NewScmError("resolve working copy", err)
	}
	repo := &Repository{BaseRepository: entities.NewBaseRepository(), CheckoutMethod: CheckoutMkws, delimiter: ':'}
	var workspace workspaceInfo
	exec, err := p.runXML(context.Background(), repo, abs, infoConsumer(&workspace), "info")
	if err != nil {
		return nil, err
	}
	if !exec.Success() || workspace.Depot == "" || workspace.Basis == "" {
		return nil, entities.NewValidationError(path, []string{
			fmt.Sprintf("%s is not inside an accurev workspace", path),
		})
	}
	repo.Host, repo.Port, repo.User = workspace.Host, workspace.Port, workspace.Principal
	repo.Depot, repo.StreamName, repo.WorkspaceName = workspace.Depot, workspace.Basis, workspace.Workspace
	return repo, nil
}

func (p *ProviderRepository) ValidateURL(raw string, delimiter rune) []string {
	_, messages := ParseRepository(raw, delimiter)
	return messages
}

// Logout ends the login session of repo and forgets its token.
func (p *ProviderRepository) Logout(ctx context.Context, repoD entities.RepositoryDescriptor) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	if repo.Token == "" {
		return entities.NewScmResult("", "No accurev session to close.", "", true), nil
	}
	exec, err := p.run(ctx, repo, "", "logout")
	if err != nil {
		return nil, err
	}
	if repo.Home != "" {
		_ = os.RemoveAll(repo.Home)
	}
	repo.Token, repo.Home = "", ""
	return exec.Result, nil
}

// command starts an accurev invocation with the server and session flags.
func (p *ProviderRepository) command(repo *Repository, dir, sub string, args ...string) *process.Commandline {
	cl := p.tool.Command(dir, sub)
	if server := repo.Server(); server != "" {
		cl.Arg("-H", server)
	}
	if repo.Token != "" {
		cl.SecretArg("-A", repo.Token)
	}
	if repo.Home != "" {
		cl.SetEnv("ACCUREV_HOME", repo.Home)
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

func (p *ProviderRepository) runXML(
	ctx context.Context,
	repo *Repository,
	dir string,
	consumer *xmlstream.Consumer,
	sub string,
	args ...string,
) (*base.Execution, error) {
	cl := p.command(repo, dir, sub, "-fx").Arg(args...)
	return p.tool.RunXML(ctx, cl, consumer, process.DefaultPolicy)
}
