package gogit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/ianbruene/go-difflib/difflib"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/git"
)

func commandLine(cmd entities.CommandName, args ...string) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", providerName, cmd, strings.Join(args, " ")))
}

func succeeded(cl string) entities.ScmResult {
	return entities.NewScmResult(cl, "", "", true)
}

// failed turns a go-git error into a failed result. go-git errors are the in-process
// equivalent of a non-zero exit code.
func failed(cl string, err error) entities.ScmResult {
	logger.Debugf("[%s] %s: %v", providerName, cl, err)
	return entities.NewFailedResult(cl, fmt.Sprintf("The %s operation failed.", providerName), err.Error())
}

func descriptor(repoD entities.RepositoryDescriptor) (*git.Repository, error) {
	return entities.DescriptorAs[*git.Repository](repoD)
}

func open(dir string) (*gogit.Repository, *gogit.Worktree, error) {
	r, err := gogit.PlainOpen(dir)
	if err != nil {
		return nil, nil, entities.NewScmError("open working copy", err)
	}
	w, err := r.Worktree()
	if err != nil {
		return nil, nil, entities.NewScmError("open working copy", err)
	}
	return r, w, nil
}

func signature(repo *git.Repository) *object.Signature {
	name := repo.User
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "scmforge"
	}
	return &object.Signature{Name: name, Email: name + "@" + hostOrLocal(repo.Host), When: time.Now()}
}

func hostOrLocal(host string) string {
	if host == "" {
		return "localhost"
	}
	return host
}

func fileStatus(s *gogit.FileStatus) (entities.ScmFileStatus, bool) {
	switch {
	case s.Staging == gogit.Untracked && s.Worktree == gogit.Untracked:
		return entities.StatusUnknown, true
	case s.Staging == gogit.UpdatedButUnmerged || s.Worktree == gogit.UpdatedButUnmerged:
		return entities.StatusConflict, true
	case s.Staging == gogit.Added || s.Staging == gogit.Renamed || s.Staging == gogit.Copied:
		return entities.StatusAdded, true
	case s.Staging == gogit.Deleted || s.Worktree == gogit.Deleted:
		return entities.StatusDeleted, true
	case s.Staging == gogit.Modified || s.Worktree == gogit.Modified:
		return entities.StatusModified, true
	default:
		return entities.StatusUnknown, false
	}
}

// workingChanges returns the sorted changes of the worktree, restricted to fileSet.
func workingChanges(w *gogit.Worktree, fileSet entities.FileSet) ([]entities.ScmFile, error) {
	status, err := w.Status()
	if err != nil {
		return nil, err
	}
	var files []entities.ScmFile
	for path, s := range status {
		if st, changed := fileStatus(s); changed && selected(path, fileSet) {
			files = append(files, entities.NewScmFile(path, st))
		}
	}
	entities.SortScmFiles(files)
	return files, nil
}

func selected(path string, fileSet entities.FileSet) bool {
	if fileSet.IsEmpty() {
		return true
	}
	for _, f := range fileSet.Files {
		f = strings.TrimSuffix(filepath.ToSlash(f), "/")
		if path == f || strings.HasPrefix(path, f+"/") {
			return true
		}
	}
	return false
}

func resolve(r *gogit.Repository, version entities.ScmVersion) (*object.Commit, error) {
	rev := "HEAD"
	if !entities.IsEmptyVersion(version) {
		rev = version.Name()
	}
	hash, err := r.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", rev, err)
	}
	return r.CommitObject(*hash)
}

func treeFiles(commit *object.Commit, status entities.ScmFileStatus) ([]entities.ScmFile, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	var files []entities.ScmFile
	err = tree.Files().ForEach(func(f *object.File) error {
		files = append(files, entities.NewScmFile(f.Name, status))
		return nil
	})
	return files, err
}

func (p *ProviderRepository) push(ctx context.Context, r *gogit.Repository, repo *git.Repository, spec string) error {
	if !repo.PushChanges {
		return nil
	}
	auth, err := authFor(repo, repo.PushURL)
	if err != nil {
		return err
	}
	err = r.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remoteName,
		RemoteURL:  repo.PushURL,
		RefSpecs:   []config.RefSpec{config.RefSpec(spec)},
		Auth:       auth,
	})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

func (p *ProviderRepository) add(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := descriptor(repoD); err != nil {
		return nil, err
	}
	if err := base.RequireFiles(entities.CommandAdd, fileSet); err != nil {
		return nil, err
	}
	_, w, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	cl := commandLine(entities.CommandAdd, fileSet.Files...)
	for _, f := range fileSet.Files {
		if _, addErr := w.Add(filepath.ToSlash(f)); addErr != nil {
			return entities.NewAddResult(failed(cl, addErr), nil), nil
		}
	}
	changes, err := workingChanges(w, fileSet)
	if err != nil {
		return entities.NewAddResult(failed(cl, err), nil), nil
	}
	var added []entities.ScmFile
	for _, f := range changes {
		if f.Status == entities.StatusAdded {
			added = append(added, f)
		}
	}
	return entities.NewAddResult(succeeded(cl), added), nil
}

func (p *ProviderRepository) remove(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := descriptor(repoD); err != nil {
		return nil, err
	}
	if err := base.RequireFiles(entities.CommandRemove, fileSet); err != nil {
		return nil, err
	}
	_, w, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	cl := commandLine(entities.CommandRemove, fileSet.Files...)
	var removed []entities.ScmFile
	for _, f := range fileSet.Files {
		if _, rmErr := w.Remove(filepath.ToSlash(f)); rmErr != nil {
			return entities.NewRemoveResult(failed(cl, rmErr), removed), nil
		}
		removed = append(removed, entities.NewScmFile(filepath.ToSlash(f), entities.StatusDeleted))
	}
	return entities.NewRemoveResult(succeeded(cl), removed), nil
}

func (p *ProviderRepository) status(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := descriptor(repoD); err != nil {
		return nil, err
	}
	_, w, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	cl := commandLine(entities.CommandStatus, fileSet.BaseDir)
	changes, err := workingChanges(w, fileSet)
	if err != nil {
		return entities.NewStatusResult(failed(cl, err), nil), nil
	}
	return entities.NewStatusResult(succeeded(cl), changes), nil
}

func (p *ProviderRepository) checkIn(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	message, err := base.RequireMessage(params)
	if err != nil {
		return nil, err
	}
	r, w, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandCheckIn, "-m", fmt.Sprintf("%q", message))
	if fileSet.IsEmpty() {
		err = w.AddWithOptions(&gogit.AddOptions{All: true})
	} else {
		for _, f := range fileSet.Files {
			if _, err = w.Add(filepath.ToSlash(f)); err != nil {
				break
			}
		}
	}
	if err != nil {
		return entities.NewCheckInResult(failed(cl, err), nil, ""), nil
	}

	changes, err := workingChanges(w, fileSet)
	if err != nil {
		return entities.NewCheckInResult(failed(cl, err), nil, ""), nil
	}
	var files []entities.ScmFile
	for _, f := range changes {
		if f.Status != entities.StatusUnknown {
			files = append(files, entities.NewScmFile(f.Path, entities.StatusCheckedIn))
		}
	}
	if len(files) == 0 {
		return entities.NewCheckInResult(entities.NewScmResult(cl, "", "nothing to commit", true), nil, ""), nil
	}

	hash, err := w.Commit(message, &gogit.CommitOptions{Author: signature(repo)})
	if err != nil {
		return entities.NewCheckInResult(failed(cl, err), nil, ""), nil
	}
	head, err := r.Head()
	if err != nil {
		return entities.NewCheckInResult(failed(cl, err), nil, hash.String()), nil
	}
	if head.Name().IsBranch() {
		spec := head.Name().String() + ":" + head.Name().String()
		if pushErr := p.push(ctx, r, repo, spec); pushErr != nil {
			return entities.NewCheckInResult(failed(cl, pushErr), nil, hash.String()), nil
		}
	}
	return entities.NewCheckInResult(succeeded(cl), files, hash.String()), nil
}

func (p *ProviderRepository) checkOut(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return nil, err
	}
	shallow, err := params.GetBoolOr(entities.ParamShallow, false)
	if err != nil {
		return nil, err
	}
	auth, err := authFor(repo, repo.FetchURL)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandCheckOut, repo.FetchURL, fileSet.BaseDir)
	var r *gogit.Repository
	if _, statErr := os.Stat(filepath.Join(fileSet.BaseDir, metadataDir)); statErr != nil {
		if err = fileSet.EnsureBaseDir(); err != nil {
			return nil, err
		}
		options := &gogit.CloneOptions{URL: repo.FetchURL, Auth: auth}
		if shallow {
			options.Depth = 1
		}
		if !entities.IsEmptyVersion(version) {
			switch version.Type() {
			case entities.VersionTypeBranch:
				options.ReferenceName = plumbing.NewBranchReferenceName(version.Name())
				options.SingleBranch = true
			case entities.VersionTypeTag:
				options.ReferenceName = plumbing.NewTagReferenceName(version.Name())
				options.SingleBranch = true
			}
		}
		if r, err = gogit.PlainCloneContext(ctx, fileSet.BaseDir, false, options); err != nil {
			return entities.NewCheckOutResult(failed(cl, err), nil, "", ""), nil
		}
	} else {
		if r, _, err = open(fileSet.BaseDir); err != nil {
			return nil, err
		}
		fetchErr := r.FetchContext(ctx, &gogit.FetchOptions{RemoteName: remoteName, Auth: auth, Tags: gogit.AllTags})
		if fetchErr != nil && !errors.Is(fetchErr, gogit.NoErrAlreadyUpToDate) {
			return entities.NewCheckOutResult(failed(cl, fetchErr), nil, "", ""), nil
		}
	}

	if !entities.IsEmptyVersion(version) && version.Type() == entities.VersionTypeRevision {
		w, wErr := r.Worktree()
		if wErr != nil {
			return nil, entities.NewScmError("open working copy", wErr)
		}
		if coErr := w.Checkout(&gogit.CheckoutOptions{Hash: plumbing.NewHash(version.Name())}); coErr != nil {
			return entities.NewCheckOutResult(failed(cl, coErr), nil, "", ""), nil
		}
	}

	commit, err := resolve(r, nil)
	if err != nil {
		return entities.NewCheckOutResult(failed(cl, err), nil, "", ""), nil
	}
	files, err := treeFiles(commit, entities.StatusCheckedOut)
	if err != nil {
		return entities.NewCheckOutResult(failed(cl, err), nil, "", ""), nil
	}
	return entities.NewCheckOutResult(succeeded(cl), files, "", commit.Hash.String()), nil
}

func (p *ProviderRepository) diff(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := descriptor(repoD); err != nil {
		return nil, err
	}
	start, err := params.GetVersionOr(entities.ParamStartScmVersion, nil)
	if err != nil {
		return nil, err
	}
	end, err := params.GetVersionOr(entities.ParamEndScmVersion, nil)
	if err != nil {
		return nil, err
	}
	r, w, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandDiff, fileSet.BaseDir)
	var files []entities.ScmFile
	var from, to func(path string) string
	if entities.IsEmptyVersion(start) {
		head, headErr := resolve(r, nil)
		if headErr != nil {
			return entities.NewDiffResult(failed(cl, headErr), nil, nil, ""), nil
		}
		if files, err = workingChanges(w, fileSet); err != nil {
			return entities.NewDiffResult(failed(cl, err), nil, nil, ""), nil
		}
		from = committedContents(head)
		to = func(path string) string {
			data, _ := os.ReadFile(filepath.Join(fileSet.BaseDir, filepath.FromSlash(path)))
			return string(data)
		}
	} else {
		fromCommit, fromErr := resolve(r, start)
		if fromErr != nil {
			return entities.NewDiffResult(failed(cl, fromErr), nil, nil, ""), nil
		}
		toCommit, toErr := resolve(r, end)
		if toErr != nil {
			return entities.NewDiffResult(failed(cl, toErr), nil, nil, ""), nil
		}
		changes, diffErr := commitChanges(fromCommit, toCommit)
		if diffErr != nil {
			return entities.NewDiffResult(failed(cl, diffErr), nil, nil, ""), nil
		}
		for _, c := range changes {
			if selected(c.Name, fileSet) {
				files = append(files, entities.NewScmFile(c.Name, c.Action))
			}
		}
		from, to = committedContents(fromCommit), committedContents(toCommit)
	}

	differences := map[string]string{}
	var patch strings.Builder
	for _, f := range files {
		if f.Status == entities.StatusUnknown {
			continue
		}
		text, diffErr := difflib.GetUnifiedDiffString(difflib.LineDiffParams{
			A:        difflib.SplitLines(from(f.Path)),
			B:        difflib.SplitLines(to(f.Path)),
			FromFile: "a/" + f.Path,
			ToFile:   "b/" + f.Path,
			Context:  3,
		})
		if diffErr != nil {
			return nil, entities.NewScmError("diff", diffErr)
		}
		differences[f.Path] = text
		patch.WriteString(text)
	}
	return entities.NewDiffResult(succeeded(cl), files, differences, patch.String()), nil
}

func committedContents(commit *object.Commit) func(path string) string {
	return func(path string) string {
		file, err := commit.File(path)
		if err != nil {
			return ""
		}
		contents, err := file.Contents()
		if err != nil {
			return ""
		}
		return contents
	}
}

// commitChanges lists the files changed between two commits. A nil from diffs against
// the empty tree.
func commitChanges(from, to *object.Commit) ([]entities.ChangeFile, error) {
	toTree, err := to.Tree()
	if err != nil {
		return nil, err
	}
	var fromTree *object.Tree
	if from != nil {
		if fromTree, err = from.Tree(); err != nil {
			return nil, err
		}
	}
	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, err
	}

	files := make([]entities.ChangeFile, 0, len(changes))
	for _, change := range changes {
		action, actionErr := change.Action()
		if actionErr != nil {
			continue
		}
		file := entities.NewChangeFile(change.To.Name, to.Hash.String())
		switch action {
		case merkletrie.Insert:
			file.Action = entities.StatusAdded
		case merkletrie.Delete:
			file.Name = change.From.Name
			file.Action = entities.StatusDeleted
		case merkletrie.Modify:
			file.Action = entities.StatusModified
		}
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (p *ProviderRepository) tag(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	name, err := params.GetString(entities.ParamTagName)
	if err != nil {
		return nil, err
	}
	tagParams, err := params.GetTagParameters(entities.ParamScmTagParameters)
	if err != nil {
		return nil, err
	}
	r, _, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandTag, name)
	head, err := resolve(r, nil)
	if err != nil {
		return entities.NewTagResult(failed(cl, err), nil), nil
	}
	message := tagParams.Message
	if message == "" {
		message = "scmforge tag " + name
	}
	if _, err = r.CreateTag(name, head.Hash, &gogit.CreateTagOptions{Message: message, Tagger: signature(repo)}); err != nil {
		return entities.NewTagResult(failed(cl, err), nil), nil
	}
	ref := plumbing.NewTagReferenceName(name).String()
	if err = p.push(ctx, r, repo, ref+":"+ref); err != nil {
		return entities.NewTagResult(failed(cl, err), nil), nil
	}
	files, err := treeFiles(head, entities.StatusTagged)
	if err != nil {
		return entities.NewTagResult(failed(cl, err), nil), nil
	}
	return entities.NewTagResult(succeeded(cl), files), nil
}

func (p *ProviderRepository) untag(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	name, err := params.GetString(entities.ParamTagName)
	if err != nil {
		return nil, err
	}
	r, _, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	cl := commandLine(entities.CommandUntag, name)
	if err = r.DeleteTag(name); err != nil {
		return entities.NewUntagResult(failed(cl, err)), nil
	}
	if err = p.push(ctx, r, repo, ":"+plumbing.NewTagReferenceName(name).String()); err != nil {
		return entities.NewUntagResult(failed(cl, err)), nil
	}
	return entities.NewUntagResult(succeeded(cl)), nil
}

func (p *ProviderRepository) branch(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	name, err := params.GetString(entities.ParamBranchName)
	if err != nil {
		return nil, err
	}
	r, _, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandBranch, name)
	head, err := resolve(r, nil)
	if err != nil {
		return entities.NewBranchResult(failed(cl, err), nil), nil
	}
	refName := plumbing.NewBranchReferenceName(name)
	if _, refErr := r.Reference(refName, false); refErr == nil {
		return entities.NewBranchResult(failed(cl, fmt.Errorf("branch %s already exists", name)), nil), nil
	}
	if err = r.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash)); err != nil {
		return nil, entities.NewScmError("create branch", err)
	}
	if err = p.push(ctx, r, repo, refName.String()+":"+refName.String()); err != nil {
		return entities.NewBranchResult(failed(cl, err), nil), nil
	}
	files, err := treeFiles(head, entities.StatusTagged)
	if err != nil {
		return entities.NewBranchResult(failed(cl, err), nil), nil
	}
	return entities.NewBranchResult(succeeded(cl), files), nil
}

func (p *ProviderRepository) update(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return nil, err
	}
	withChangeLog, err := params.GetBoolOr(entities.ParamRunChangeLogWithUpdate, false)
	if err != nil {
		return nil, err
	}
	auth, err := authFor(repo, repo.FetchURL)
	if err != nil {
		return nil, err
	}
	r, w, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandUpdate, fileSet.BaseDir)
	before, err := resolve(r, nil)
	if err != nil {
		return entities.NewUpdateResult(failed(cl, err), nil, nil), nil
	}
	options := &gogit.PullOptions{RemoteName: remoteName, Auth: auth}
	if !entities.IsEmptyVersion(version) && version.Type() == entities.VersionTypeBranch {
		options.ReferenceName = plumbing.NewBranchReferenceName(version.Name())
	}
	pullErr := w.PullContext(ctx, options)
	if errors.Is(pullErr, gogit.NoErrAlreadyUpToDate) {
		return entities.NewUpdateResult(succeeded(cl), nil, nil), nil
	}
	if pullErr != nil {
		return entities.NewUpdateResult(failed(cl, pullErr), nil, nil), nil
	}

	after, err := resolve(r, nil)
	if err != nil {
		return entities.NewUpdateResult(failed(cl, err), nil, nil), nil
	}
	changed, err := commitChanges(before, after)
	if err != nil {
		return entities.NewUpdateResult(failed(cl, err), nil, nil), nil
	}
	var files []entities.ScmFile
	for _, c := range changed {
		if selected(c.Name, fileSet) {
			files = append(files, entities.NewScmFile(c.Name, entities.StatusUpdated))
		}
	}

	var changeSets []entities.ChangeSet
	if withChangeLog {
		if changeSets, err = history(r, after.Hash, &before.Hash, logFilter{}); err != nil {
			return entities.NewUpdateResult(failed(cl, err), files, nil), nil
		}
	}
	return entities.NewUpdateResult(succeeded(cl), files, changeSets), nil
}

type logFilter struct {
	since, until time.Time
	limit        int
	path         string
}

// history walks first-parent history from head and stops before stop.
func history(r *gogit.Repository, head plumbing.Hash, stop *plumbing.Hash, filter logFilter) ([]entities.ChangeSet, error) {
	options := &gogit.LogOptions{From: head}
	if !filter.since.IsZero() {
		options.Since = &filter.since
	}
	if !filter.until.IsZero() {
		options.Until = &filter.until
	}
	if filter.path != "" && filter.path != "." {
		options.FileName = &filter.path
	}
	iter, err := r.Log(options)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var sets []entities.ChangeSet
	for {
		commit, nextErr := iter.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return nil, nextErr
		}
		if stop != nil && commit.Hash == *stop {
			break
		}
		cs := entities.ChangeSet{
			Author:   commit.Author.Name,
			Date:     commit.Author.When.UTC(),
			Comment:  strings.TrimSpace(commit.Message),
			Revision: commit.Hash.String(),
		}
		var parent *object.Commit
		if commit.NumParents() > 0 {
			if parent, err = commit.Parent(0); err != nil {
				return nil, err
			}
		}
		files, filesErr := commitChanges(parent, commit)
		if filesErr != nil {
			return nil, filesErr
		}
		for _, f := range files {
			cs.AddFile(f)
		}
		sets = append(sets, cs)
		if filter.limit > 0 && len(sets) >= filter.limit {
			break
		}
	}
	return sets, nil
}

func (p *ProviderRepository) changeLog(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := descriptor(repoD); err != nil {
		return nil, err
	}
	var filter logFilter
	var err error
	if filter.since, err = params.GetDateOr(entities.ParamStartDate, time.Time{}); err != nil {
		return nil, err
	}
	if filter.until, err = params.GetDateOr(entities.ParamEndDate, time.Time{}); err != nil {
		return nil, err
	}
	if filter.limit, err = params.GetIntOr(entities.ParamNumChangeSets, 0); err != nil {
		return nil, err
	}
	startVersion, err := params.GetVersionOr(entities.ParamStartScmVersion, nil)
	if err != nil {
		return nil, err
	}
	endVersion, err := params.GetVersionOr(entities.ParamEndScmVersion, nil)
	if err != nil {
		return nil, err
	}
	r, _, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandChangeLog, fileSet.BaseDir)
	changeLog := &entities.ChangeLogSet{
		StartDate: filter.since, EndDate: filter.until, StartVersion: startVersion, EndVersion: endVersion,
	}
	head, err := resolve(r, endVersion)
	if err != nil {
		return entities.NewChangeLogResult(failed(cl, err), changeLog), nil
	}
	var stop *plumbing.Hash
	if !entities.IsEmptyVersion(startVersion) {
		start, startErr := resolve(r, startVersion)
		if startErr != nil {
			return entities.NewChangeLogResult(failed(cl, startErr), changeLog), nil
		}
		stop = &start.Hash
	}
	if changeLog.ChangeSets, err = history(r, head.Hash, stop, filter); err != nil {
		return entities.NewChangeLogResult(failed(cl, err), changeLog), nil
	}
	return entities.NewChangeLogResult(succeeded(cl), changeLog), nil
}

func (p *ProviderRepository) list(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := descriptor(repoD); err != nil {
		return nil, err
	}
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return nil, err
	}
	recursive, err := params.GetBoolOr(entities.ParamRecursive, true)
	if err != nil {
		return nil, err
	}
	r, _, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandList, fileSet.BaseDir)
	commit, err := resolve(r, version)
	if err != nil {
		return entities.NewListResult(failed(cl, err), nil), nil
	}
	var files []entities.ScmFile
	if recursive {
		all, filesErr := treeFiles(commit, entities.StatusCheckedIn)
		if filesErr != nil {
			return entities.NewListResult(failed(cl, filesErr), nil), nil
		}
		for _, f := range all {
			if selected(f.Path, fileSet) {
				files = append(files, f)
			}
		}
	} else {
		tree, treeErr := commit.Tree()
		if treeErr != nil {
			return entities.NewListResult(failed(cl, treeErr), nil), nil
		}
		for _, entry := range tree.Entries {
			if selected(entry.Name, fileSet) {
				files = append(files, entities.NewScmFile(entry.Name, entities.StatusCheckedIn))
			}
		}
	}
	return entities.NewListResult(succeeded(cl), files), nil
}

func (p *ProviderRepository) remoteInfo(
	ctx context.Context,
	repoD entities.RepositoryDescriptor,
	_ entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	auth, err := authFor(repo, repo.FetchURL)
	if err != nil {
		return nil, err
	}
	cl := commandLine(entities.CommandRemoteInfo, repo.FetchURL)
	remote := gogit.NewRemote(memory.NewStorage(), &config.RemoteConfig{Name: remoteName, URLs: []string{repo.FetchURL}})
	refs, err := remote.ListContext(ctx, &gogit.ListOptions{Auth: auth, PeelingOption: gogit.AppendPeeled})
	if err != nil {
		return entities.NewRemoteInfoResult(failed(cl, err), nil, nil), nil
	}

	branches, tags := map[string]string{}, map[string]string{}
	for _, ref := range refs {
		name := ref.Name()
		switch {
		case name.IsBranch():
			branches[name.Short()] = ref.Hash().String()
		case name.IsTag():
			short := name.Short()
			if peeled, ok := strings.CutSuffix(short, "^{}"); ok {
				tags[peeled] = ref.Hash().String()
			} else if _, exists := tags[short]; !exists {
				tags[short] = ref.Hash().String()
			}
		}
	}
	return entities.NewRemoteInfoResult(succeeded(cl), branches, tags), nil
}

func (p *ProviderRepository) blame(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := descriptor(repoD); err != nil {
		return nil, err
	}
	file, err := params.GetString(entities.ParamFile)
	if err != nil {
		return nil, err
	}
	r, _, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandBlame, file)
	head, err := resolve(r, nil)
	if err != nil {
		return entities.NewBlameResult(failed(cl, err), nil), nil
	}
	blamed, err := gogit.Blame(head, filepath.ToSlash(file))
	if err != nil {
		return entities.NewBlameResult(failed(cl, err), nil), nil
	}
	lines := make([]entities.BlameLine, 0, len(blamed.Lines))
	for _, line := range blamed.Lines {
		lines = append(lines, entities.BlameLine{Revision: line.Hash.String(), Author: line.AuthorName, Date: line.Date.UTC()})
	}
	return entities.NewBlameResult(succeeded(cl), lines), nil
}

func (p *ProviderRepository) info(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := descriptor(repoD)
	if err != nil {
		return nil, err
	}
	r, _, err := open(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	paths := fileSet.Files
	if fileSet.IsEmpty() {
		paths = []string{"."}
	}

	cl := commandLine(entities.CommandInfo, paths...)
	head, err := resolve(r, nil)
	if err != nil {
		return entities.NewInfoResult(failed(cl, err), nil), nil
	}
	items := make([]entities.InfoItem, 0, len(paths))
	for _, path := range paths {
		item := entities.InfoItem{Path: path, URL: repo.FetchURL, Revision: head.Hash.String()}
		sets, logErr := history(r, head.Hash, nil, logFilter{limit: 1, path: filepath.ToSlash(path)})
		if logErr != nil {
			return entities.NewInfoResult(failed(cl, logErr), nil), nil
		}
		if len(sets) > 0 {
			item.LastChangedRevision = sets[0].Revision
			item.LastChangedAuthor = sets[0].Author
			item.LastChangedDate = sets[0].Date
		}
		items = append(items, item)
	}
	return entities.NewInfoResult(succeeded(cl), items), nil
}
