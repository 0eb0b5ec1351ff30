package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ianbruene/go-difflib/difflib"
	logger "github.com/sirupsen/logrus"
	shutil "github.com/termie/go-shutil"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
)

type change struct {
	path   string
	status entities.ScmFileStatus
}

func commandLine(cmd entities.CommandName, args ...string) string {
	return strings.TrimSpace(fmt.Sprintf("local %s %s", cmd, strings.Join(args, " ")))
}

func (p *ProviderRepository) checkOut(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := entities.DescriptorAs[*Repository](repoD)
	if err != nil {
		return nil, err
	}
	source, res, err := sourceDir(repo, params, entities.CommandCheckOut, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return entities.NewCheckOutResult(res, nil, repo.Module, ""), nil
	}

	files, err := copyModule(source, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	meta := newMetadata(repo)
	if meta.Baseline, err = snapshot(fileSet.BaseDir); err != nil {
		return nil, err
	}
	if meta.Revision, err = latestRevision(repo); err != nil {
		return nil, err
	}
	if writeErr := meta.write(fileSet.BaseDir); writeErr != nil {
		return nil, writeErr
	}

	logger.Infof("[%s] Checked out %d file(s) into %s", providerName, len(files), fileSet.BaseDir)
	return entities.NewCheckOutResult(
		res,
		base.FilesWithStatus(files, entities.StatusCheckedOut),
		repo.Module,
		strconv.Itoa(meta.Revision),
	), nil
}

func (p *ProviderRepository) export(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := entities.DescriptorAs[*Repository](repoD)
	if err != nil {
		return nil, err
	}
	target, err := params.GetStringOr(entities.ParamOutputDirectory, fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	source, res, err := sourceDir(repo, params, entities.CommandExport, target)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return entities.NewExportResult(res, nil), nil
	}
	files, err := copyModule(source, target)
	if err != nil {
		return nil, err
	}
	return entities.NewExportResult(
		res,
		base.FilesWithStatus(files, entities.StatusCheckedOut),
	), nil
}

// sourceDir resolves the directory a checkout, export or list reads from. A missing source
// is reported through the returned failed result rather than an error.
func sourceDir(
	repo *Repository,
	params *entities.CommandParameters,
	cmd entities.CommandName,
	target string,
) (string, entities.ScmResult, error) {
	version, err := params.GetVersionOr(entities.ParamScmVersion, nil)
	if err != nil {
		return "", entities.ScmResult{}, err
	}
	source := repo.ModuleDir()
	if !entities.IsEmptyVersion(version) && version.Type() == entities.VersionTypeTag {
		source = repo.TagDir(version.Name())
	}
	cl := commandLine(cmd, source, target)
	if _, statErr := os.Stat(source); statErr != nil {
		return "", entities.NewFailedResult(cl, fmt.Sprintf("The source %s does not exist.", source), statErr.Error()), nil
	}
	return source, entities.NewScmResult(cl, "", "", true), nil
}

// copyModule replaces target with a copy of source and returns the copied files.
func copyModule(source, target string) ([]string, error) {
	if err := clearTarget(target); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(target)), 0o755); err != nil {
		return nil, entities.NewScmError("prepare working directory", err)
	}
	if err := shutil.CopyTree(source, target, nil); err != nil {
		return nil, entities.NewScmError("copy module", err)
	}
	sums, err := snapshot(target)
	if err != nil {
		return nil, err
	}
	return sortedKeys(sums), nil
}

// clearTarget removes a previous working copy. Directories with foreign content are kept.
func clearTarget(target string) error {
	entries, err := os.ReadDir(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return entities.NewScmError("prepare working directory", err)
	}
	if len(entries) > 0 {
		if _, statErr := os.Stat(filepath.Join(target, metadataFile)); statErr != nil {
			return entities.NewScmError("prepare working directory",
				fmt.Errorf("%s is not empty and is not a local working copy", target))
		}
	}
	if removeErr := os.RemoveAll(target); removeErr != nil {
		return entities.NewScmError("prepare working directory", removeErr)
	}
	return nil
}

func (p *ProviderRepository) add(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := entities.DescriptorAs[*Repository](repoD); err != nil {
		return nil, err
	}
	if err := base.RequireFiles(entities.CommandAdd, fileSet); err != nil {
		return nil, err
	}
	meta, err := readMetadata(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandAdd, fileSet.Files...)
	var added []string
	for _, rel := range fileSet.Files {
		abs := filepath.Join(fileSet.BaseDir, filepath.FromSlash(rel))
		info, statErr := os.Stat(abs)
		if statErr != nil {
			return entities.NewAddResult(
				entities.NewFailedResult(cl, fmt.Sprintf("The file %s does not exist.", rel), statErr.Error()),
				nil,
			), nil
		}
		if info.IsDir() {
			sums, snapErr := snapshot(abs)
			if snapErr != nil {
				return nil, snapErr
			}
			for _, sub := range sortedKeys(sums) {
				added = appendAdded(meta, added, filepath.ToSlash(filepath.Join(rel, sub)))
			}
			continue
		}
		added = appendAdded(meta, added, filepath.ToSlash(rel))
	}
	if writeErr := meta.write(fileSet.BaseDir); writeErr != nil {
		return nil, writeErr
	}
	return entities.NewAddResult(
		entities.NewScmResult(cl, "", "", true),
		base.FilesWithStatus(added, entities.StatusAdded),
	), nil
}

func appendAdded(meta *metadata, added []string, rel string) []string {
	if _, tracked := meta.Baseline[rel]; tracked && !meta.isRemoved(rel) {
		return added
	}
	meta.markAdded(rel)
	return append(added, rel)
}

func (p *ProviderRepository) remove(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := entities.DescriptorAs[*Repository](repoD); err != nil {
		return nil, err
	}
	if err := base.RequireFiles(entities.CommandRemove, fileSet); err != nil {
		return nil, err
	}
	meta, err := readMetadata(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, rel := range fileSet.Files {
		rel = filepath.ToSlash(rel)
		if _, tracked := meta.Baseline[rel]; !tracked && !meta.isAdded(rel) {
			continue
		}
		if _, tracked := meta.Baseline[rel]; tracked {
			meta.markRemoved(rel)
		} else {
			meta.Added = without(meta.Added, rel)
		}
		if removeErr := os.Remove(filepath.Join(fileSet.BaseDir, filepath.FromSlash(rel))); removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, entities.NewScmError("remove file", removeErr)
		}
		removed = append(removed, rel)
	}
	if writeErr := meta.write(fileSet.BaseDir); writeErr != nil {
		return nil, writeErr
	}
	return entities.NewRemoveResult(
		entities.NewScmResult(commandLine(entities.CommandRemove, fileSet.Files...), "", "", true),
		base.FilesWithStatus(removed, entities.StatusDeleted),
	), nil
}

func (p *ProviderRepository) status(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	if _, err := entities.DescriptorAs[*Repository](repoD); err != nil {
		return nil, err
	}
	changes, _, err := workingChanges(fileSet, true)
	if err != nil {
		return nil, err
	}
	return entities.NewStatusResult(
		entities.NewScmResult(commandLine(entities.CommandStatus, fileSet.BaseDir), "", "", true),
		toScmFiles(changes),
	), nil
}

// workingChanges compares the working copy with its baseline. Unversioned files are
// reported as unknown only when includeUnknown is set.
func workingChanges(fileSet entities.FileSet, includeUnknown bool) ([]change, *metadata, error) {
	meta, err := readMetadata(fileSet.BaseDir)
	if err != nil {
		return nil, nil, err
	}
	work, err := snapshot(fileSet.BaseDir)
	if err != nil {
		return nil, nil, err
	}

	var changes []change
	for _, path := range sortedKeys(meta.Baseline) {
		sum, present := work[path]
		switch {
		case meta.isRemoved(path) || !present:
			changes = append(changes, change{path, entities.StatusDeleted})
		case sum != meta.Baseline[path]:
			changes = append(changes, change{path, entities.StatusModified})
		}
	}
	for _, path := range sortedKeys(work) {
		if _, tracked := meta.Baseline[path]; tracked {
			continue
		}
		if meta.isAdded(path) {
			changes = append(changes, change{path, entities.StatusAdded})
		} else if includeUnknown {
			changes = append(changes, change{path, entities.StatusUnknown})
		}
	}
	return selectChanges(changes, fileSet), meta, nil
}

func selectChanges(changes []change, fileSet entities.FileSet) []change {
	if fileSet.IsEmpty() {
		return changes
	}
	var kept []change
	for _, c := range changes {
		for _, selected := range fileSet.Files {
			selected = strings.TrimSuffix(filepath.ToSlash(selected), "/")
			if c.path == selected || strings.HasPrefix(c.path, selected+"/") {
				kept = append(kept, c)
				break
			}
		}
	}
	return kept
}

func toScmFiles(changes []change) []entities.ScmFile {
	files := make([]entities.ScmFile, 0, len(changes))
	for _, c := range changes {
		files = append(files, entities.NewScmFile(c.path, c.status))
	}
	return files
}

func (p *ProviderRepository) checkIn(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := entities.DescriptorAs[*Repository](repoD)
	if err != nil {
		return nil, err
	}
	message, err := base.RequireMessage(params)
	if err != nil {
		return nil, err
	}
	changes, meta, err := workingChanges(fileSet, false)
	if err != nil {
		return nil, err
	}
	current, err := snapshot(repo.ModuleDir())
	if err != nil {
		return nil, err
	}

	cl := commandLine(entities.CommandCheckIn, "-m", strconv.Quote(message))
	for _, c := range changes {
		if c.status == entities.StatusModified && current[c.path] != meta.Baseline[c.path] {
			return entities.NewCheckInResult(
				entities.NewFailedResult(cl, fmt.Sprintf("The file %s is out of date; update first.", c.path), ""),
				nil, "",
			), nil
		}
	}
	if len(changes) == 0 {
		return entities.NewCheckInResult(entities.NewScmResult(cl, "", "nothing to check in", true), nil, ""), nil
	}

	entry := historyEntry{Author: author(repo), Date: entities.FormatTimestamp(time.Now()), Comment: message}
	var committed []entities.ScmFile
	for _, c := range changes {
		if applyErr := applyChange(fileSet.BaseDir, repo.ModuleDir(), c); applyErr != nil {
			return nil, applyErr
		}
		if c.status == entities.StatusDeleted {
			delete(meta.Baseline, c.path)
			meta.Removed = without(meta.Removed, c.path)
		} else {
			sum, sumErr := checksum(filepath.Join(fileSet.BaseDir, filepath.FromSlash(c.path)))
			if sumErr != nil {
				return nil, entities.NewScmError("check in", sumErr)
			}
			meta.Baseline[c.path] = sum
			meta.Added = without(meta.Added, c.path)
		}
		entry.Files = append(entry.Files, historyFile{Name: c.path, Action: c.status.String()})
		committed = append(committed, entities.NewScmFile(c.path, entities.StatusCheckedIn))
	}

	revision, err := latestRevision(repo)
	if err != nil {
		return nil, err
	}
	meta.Revision = revision + 1
	entry.Revision = strconv.Itoa(meta.Revision)
	if histErr := appendHistory(repo, entry); histErr != nil {
		return nil, histErr
	}
	if writeErr := meta.write(fileSet.BaseDir); writeErr != nil {
		return nil, writeErr
	}
	return entities.NewCheckInResult(entities.NewScmResult(cl, "", "", true), committed, entry.Revision), nil
}

// applyChange copies a working change into the module directory.
func applyChange(workDir, moduleDir string, c change) error {
	target := filepath.Join(moduleDir, filepath.FromSlash(c.path))
	if c.status == entities.StatusDeleted {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return entities.NewScmError("check in", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return entities.NewScmError("check in", err)
	}
	if _, err := shutil.Copy(filepath.Join(workDir, filepath.FromSlash(c.path)), target, false); err != nil {
		return entities.NewScmError("check in", err)
	}
	return nil
}

func author(repo *Repository) string {
	if repo.User != "" {
		return repo.User
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}

func latestRevision(repo *Repository) (int, error) {
	entries, err := readHistory(repo)
	if err != nil {
		return 0, err
	}
	latest := 0
	for _, e := range entries {
		if n, convErr := strconv.Atoi(e.Revision); convErr == nil && n > latest {
			latest = n
		}
	}
	return latest, nil
}

func (p *ProviderRepository) update(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := entities.DescriptorAs[*Repository](repoD)
	if err != nil {
		return nil, err
	}
	withChangeLog, err := params.GetBoolOr(entities.ParamRunChangeLogWithUpdate, false)
	if err != nil {
		return nil, err
	}
	meta, err := readMetadata(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	work, err := snapshot(fileSet.BaseDir)
	if err != nil {
		return nil, err
	}
	current, err := snapshot(repo.ModuleDir())
	if err != nil {
		return nil, err
	}

	var changes []change
	for _, path := range sortedKeys(current) {
		repoSum := current[path]
		baseSum, tracked := meta.Baseline[path]
		workSum, present := work[path]
		if tracked && repoSum == baseSum {
			continue
		}
		localEdit := present && ((tracked && workSum != baseSum) || (!tracked && workSum != repoSum))
		if localEdit {
			changes = append(changes, change{path, entities.StatusConflict})
			continue
		}
		if present && workSum == repoSum {
			meta.Baseline[path] = repoSum
			continue
		}
		if copyErr := copyFile(repo.ModuleDir(), fileSet.BaseDir, path); copyErr != nil {
			return nil, copyErr
		}
		meta.Baseline[path] = repoSum
		changes = append(changes, change{path, entities.StatusUpdated})
	}
	for _, path := range sortedKeys(meta.Baseline) {
		if _, exists := current[path]; exists {
			continue
		}
		if work[path] == meta.Baseline[path] {
			_ = os.Remove(filepath.Join(fileSet.BaseDir, filepath.FromSlash(path)))
			changes = append(changes, change{path, entities.StatusDeleted})
		} else {
			changes = append(changes, change{path, entities.StatusConflict})
		}
		delete(meta.Baseline, path)
	}

	previous := meta.Revision
	if meta.Revision, err = latestRevision(repo); err != nil {
		return nil, err
	}
	if writeErr := meta.write(fileSet.BaseDir); writeErr != nil {
		return nil, writeErr
	}

	var changeSets []entities.ChangeSet
	if withChangeLog {
		if changeSets, err = changeSetsAfter(repo, previous); err != nil {
			return nil, err
		}
	}
	return entities.NewUpdateResult(
		entities.NewScmResult(commandLine(entities.CommandUpdate, fileSet.BaseDir), "", "", true),
		toScmFiles(selectChanges(changes, fileSet)),
		changeSets,
	), nil
}

func copyFile(fromDir, toDir, rel string) error {
	target := filepath.Join(toDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return entities.NewScmError("update", err)
	}
	if _, err := shutil.Copy(filepath.Join(fromDir, filepath.FromSlash(rel)), target, false); err != nil {
		return entities.NewScmError("update", err)
	}
	return nil
}

func changeSetsAfter(repo *Repository, revision int) ([]entities.ChangeSet, error) {
	entries, err := readHistory(repo)
	if err != nil {
		return nil, err
	}
	var sets []entities.ChangeSet
	for _, e := range entries {
		if n, _ := strconv.Atoi(e.Revision); n <= revision {
			continue
		}
		cs, convErr := e.toChangeSet()
		if convErr != nil {
			return nil, entities.NewScmError("read local history", convErr)
		}
		sets = append(sets, cs)
	}
	return sets, nil
}

func (p *ProviderRepository) diff(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	_ *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := entities.DescriptorAs[*Repository](repoD)
	if err != nil {
		return nil, err
	}
	changes, _, err := workingChanges(fileSet, false)
	if err != nil {
		return nil, err
	}

	differences := map[string]string{}
	var patch strings.Builder
	for _, c := range changes {
		from := readOrEmpty(filepath.Join(repo.ModuleDir(), filepath.FromSlash(c.path)))
		to := readOrEmpty(filepath.Join(fileSet.BaseDir, filepath.FromSlash(c.path)))
		if c.status == entities.StatusAdded {
			from = ""
		}
		text, diffErr := difflib.GetUnifiedDiffString(difflib.LineDiffParams{
			A:        difflib.SplitLines(from),
			B:        difflib.SplitLines(to),
			FromFile: c.path + " (repository)",
			ToFile:   c.path + " (working copy)",
			Context:  3,
		})
		if diffErr != nil {
			return nil, entities.NewScmError("diff", diffErr)
		}
		differences[c.path] = text
		patch.WriteString(text)
	}
	return entities.NewDiffResult(
		entities.NewScmResult(commandLine(entities.CommandDiff, fileSet.BaseDir), "", patch.String(), true),
		toScmFiles(changes),
		differences,
		patch.String(),
	), nil
}

func readOrEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func (p *ProviderRepository) tag(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	_ entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := entities.DescriptorAs[*Repository](repoD)
	if err != nil {
		return nil, err
	}
	tagName, err := params.GetString(entities.ParamTagName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(tagName) == "" || strings.ContainsAny(tagName, `/\`) {
		return nil, &entities.ParameterError{
			Parameter: entities.ParamTagName, Reason: entities.ErrMissingParameter, Detail: "invalid tag name",
		}
	}
	cl := commandLine(entities.CommandTag, tagName)
	if _, statErr := os.Stat(repo.TagDir(tagName)); statErr == nil {
		return entities.NewTagResult(
			entities.NewFailedResult(cl, fmt.Sprintf("The tag %s already exists.", tagName), ""), nil,
		), nil
	}
	if mkErr := os.MkdirAll(filepath.Dir(repo.TagDir(tagName)), 0o755); mkErr != nil {
		return nil, entities.NewScmError("tag", mkErr)
	}
	if copyErr := shutil.CopyTree(repo.ModuleDir(), repo.TagDir(tagName), nil); copyErr != nil {
		return nil, entities.NewScmError("tag", copyErr)
	}
	sums, err := snapshot(repo.TagDir(tagName))
	if err != nil {
		return nil, err
	}
	return entities.NewTagResult(
		entities.NewScmResult(cl, "", "", true),
		base.FilesWithStatus(sortedKeys(sums), entities.StatusTagged),
	), nil
}

func (p *ProviderRepository) list(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := entities.DescriptorAs[*Repository](repoD)
	if err != nil {
		return nil, err
	}
	recursive, err := params.GetBoolOr(entities.ParamRecursive, true)
	if err != nil {
		return nil, err
	}
	source, res, err := sourceDir(repo, params, entities.CommandList, "")
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return entities.NewListResult(res, nil), nil
	}
	sums, err := snapshot(source)
	if err != nil {
		return nil, err
	}

	var changes []change
	seen := map[string]bool{}
	for _, path := range sortedKeys(sums) {
		if !recursive {
			path = strings.SplitN(path, "/", 2)[0]
		}
		if !seen[path] {
			seen[path] = true
			changes = append(changes, change{path, entities.StatusCheckedIn})
		}
	}
	return entities.NewListResult(res, toScmFiles(selectChanges(changes, fileSet))), nil
}

func (p *ProviderRepository) changeLog(
	_ context.Context,
	repoD entities.RepositoryDescriptor,
	_ entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	repo, err := entities.DescriptorAs[*Repository](repoD)
	if err != nil {
		return nil, err
	}
	start, err := params.GetDateOr(entities.ParamStartDate, time.Time{})
	if err != nil {
		return nil, err
	}
	end, err := params.GetDateOr(entities.ParamEndDate, time.Time{})
	if err != nil {
		return nil, err
	}
	limit, err := params.GetIntOr(entities.ParamNumChangeSets, 0)
	if err != nil {
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

	from, err := revisionNumber(entities.ParamStartScmVersion, startVersion, 0)
	if err != nil {
		return nil, err
	}
	to, err := revisionNumber(entities.ParamEndScmVersion, endVersion, -1)
	if err != nil {
		return nil, err
	}
	sets, err := changeSetsAfter(repo, from-1)
	if err != nil {
		return nil, err
	}
	if to >= 0 {
		kept := sets[:0]
		for _, cs := range sets {
			if n, _ := strconv.Atoi(cs.Revision); n <= to {
				kept = append(kept, cs)
			}
		}
		sets = kept
	}

	changeLog := &entities.ChangeLogSet{
		ChangeSets: sets, StartDate: start, EndDate: end, StartVersion: startVersion, EndVersion: endVersion,
	}
	changeLog.FilterByDate(start, end)
	if limit > 0 && len(changeLog.ChangeSets) > limit {
		changeLog.ChangeSets = changeLog.ChangeSets[len(changeLog.ChangeSets)-limit:]
	}
	return entities.NewChangeLogResult(
		entities.NewScmResult(commandLine(entities.CommandChangeLog, repo.ModuleDir()), "", "", true),
		changeLog,
	), nil
}

// revisionNumber reads a local revision number, or fallback when version is empty.
func revisionNumber(param entities.CommandParameter, version entities.ScmVersion, fallback int) (int, error) {
	if entities.IsEmptyVersion(version) {
		return fallback, nil
	}
	n, err := strconv.Atoi(version.Name())
	if err != nil || n < 0 {
		return 0, &entities.ParameterError{
			Parameter: param,
			Reason:    entities.ErrParameterType,
			Detail:    fmt.Sprintf("%q is not a local revision number", version.Name()),
		}
	}
	return n, nil
}
