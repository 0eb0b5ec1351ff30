// Package svn implements a provider wrapping the Subversion command line client. Commands
// with structured output are run with --xml and parsed while svn is still writing.
package svn

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/process"
	"github.com/rios0rios0/scmforge/internal/xmlstream"
)

const (
	providerName = "svn"
	metadataDir  = ".svn"
)

//nolint:gochecknoglobals // closed lookup table
var supportedSchemes = map[string]bool{
	"file": true, "http": true, "https": true, "svn": true, "svn+ssh": true,
}

// Repository is a Subversion URL plus the bases under which tags and branches are created.
type Repository struct {
	entities.BaseRepository
	URL        string
	TagBase    string
	BranchBase string
}

func (r *Repository) String() string { return r.URL }

// TagURL is the URL of tag name.
func (r *Repository) TagURL(name string) string { return r.TagBase + "/" + name }

// BranchURL is the URL of branch name.
func (r *Repository) BranchURL(name string) string { return r.BranchBase + "/" + name }

// VersionURL resolves the URL a version refers to. Revisions keep the repository URL.
func (r *Repository) VersionURL(version entities.ScmVersion) string {
	if entities.IsEmptyVersion(version) {
		return r.URL
	}
	switch version.Type() {
	case entities.VersionTypeTag:
		return r.TagURL(version.Name())
	case entities.VersionTypeBranch:
		return r.BranchURL(version.Name())
	default:
		return r.URL + "@" + version.Name()
	}
}

// ParseRepository parses "<url>[?tagBase=<url>&branchBase=<url>]".
func ParseRepository(raw string) (*Repository, []string) {
	rest, query, err := entities.SplitQuery(strings.TrimSpace(raw))
	var messages []string
	if err != nil {
		messages = append(messages, err.Error())
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return nil, append(messages, "the svn url must not be empty")
	}

	parsed, parseErr := url.Parse(rest)
	switch {
	case parseErr != nil:
		messages = append(messages, fmt.Sprintf("invalid svn url %q: %v", rest, parseErr))
	case !supportedSchemes[parsed.Scheme]:
		messages = append(messages, fmt.Sprintf("unsupported svn url scheme %q", parsed.Scheme))
	case parsed.Scheme != "file" && parsed.Host == "":
		messages = append(messages, fmt.Sprintf("the svn url %q has no host", rest))
	}
	for key := range query {
		if key != "tagBase" && key != "branchBase" {
			messages = append(messages, fmt.Sprintf("unknown svn url parameter %q", key))
		}
	}
	if len(messages) > 0 {
		return nil, messages
	}

	repo := &Repository{BaseRepository: entities.NewBaseRepository(), URL: rest}
	repo.Host = parsed.Hostname()
	if parsed.User != nil {
		repo.User = parsed.User.Username()
		repo.Password, _ = parsed.User.Password()
		parsed.User = nil
		repo.URL = parsed.String()
	}
	if port, convErr := strconv.Atoi(parsed.Port()); convErr == nil {
		repo.Port = port
	}
	repo.TagBase = query.Get("tagBase")
	if repo.TagBase == "" {
		repo.TagBase = siblingOf(repo.URL, "tags")
	}
	repo.BranchBase = query.Get("branchBase")
	if repo.BranchBase == "" {
		repo.BranchBase = siblingOf(repo.URL, "branches")
	}
	return repo, nil
}

// siblingOf derives a tag or branch base: the directory next to /trunk, or a child of url
// when there is no trunk.
func siblingOf(rawURL, dir string) string {
	if idx := strings.LastIndex(rawURL, "/trunk"); idx >= 0 {
		return rawURL[:idx] + "/" + dir
	}
	return rawURL + "/" + dir
}

// ProviderRepository is the Subversion provider.
type ProviderRepository struct {
	*base.Provider
	tool *base.Tool
}

// NewProviderRepository creates the svn provider using the executable configured in settings.
func NewProviderRepository(settings *entities.Settings) domainRepos.ProviderRepository {
	p := &ProviderRepository{
		Provider: base.NewProvider(providerName),
		tool:     base.NewTool(providerName, settings.Executable(providerName, "svn"), "svn: warning: W155010"),
	}
	p.Handle(entities.CommandAdd, p.add).
		Handle(entities.CommandBlame, p.blame).
		Handle(entities.CommandBranch, p.branch).
		Handle(entities.CommandChangeLog, p.changeLog).
		Handle(entities.CommandCheckIn, p.checkIn).
		Handle(entities.CommandCheckOut, p.checkOut).
		Handle(entities.CommandDiff, p.diff).
		Handle(entities.CommandExport, p.export).
		Handle(entities.CommandInfo, p.info).
		Handle(entities.CommandList, p.list).
		Handle(entities.CommandRemove, p.remove).
		Handle(entities.CommandStatus, p.status).
		Handle(entities.CommandTag, p.tag).
		Handle(entities.CommandUpdate, p.update)
	return p
}

func (p *ProviderRepository) ScmSpecificFilename() string { return metadataDir }

func (p *ProviderRepository) MakeRepository(raw string, _ rune) (entities.RepositoryDescriptor, error) {
	repo, messages := ParseRepository(raw)
	if err := base.Invalid(raw, messages); err != nil {
		return nil, err
	}
	return repo, nil
}

// MakeRepositoryFromPath asks svn info for the URL of a working copy.
func (p *ProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	if err := base.RequireWorkingCopy(path, metadataDir); err != nil {
		return nil, err
	}
	items, exec, err := p.infoItems(context.Background(), &Repository{}, path, []string{"."})
	if err != nil {
		return nil, err
	}
	if !exec.Success() || len(items) == 0 || items[0].URL == "" {
		return nil, entities.NewValidationError(path, []string{"svn info did not report a repository url"})
	}
	return p.MakeRepository(items[0].URL, ':')
}

func (p *ProviderRepository) ValidateURL(raw string, _ rune) []string {
	_, messages := ParseRepository(raw)
	return messages
}

// command builds an svn invocation with the shared non-interactive and credential flags.
func (p *ProviderRepository) command(repo *Repository, dir, sub string, args ...string) *process.Commandline {
	cl := p.tool.Command(dir, sub, "--non-interactive")
	if repo.User != "" {
		cl.Arg("--username", repo.User)
	}
	if repo.Password != "" {
		cl.SecretArg("--password", repo.Password)
	}
	if !repo.PersistCheckout {
		cl.Arg("--no-auth-cache")
	}
	return cl.Arg(args...)
}

func (p *ProviderRepository) run(ctx context.Context, cl *process.Commandline) (*base.Execution, error) {
	return p.tool.Run(ctx, cl, nil, process.DefaultPolicy)
}

func (p *ProviderRepository) runXML(
	ctx context.Context,
	cl *process.Commandline,
	consumer *xmlstream.Consumer,
) (*base.Execution, error) {
	return p.tool.RunXML(ctx, cl.Arg("--xml"), consumer, process.DefaultPolicy)
}
