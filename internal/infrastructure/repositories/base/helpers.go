package base

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// SplitURL separates provider tokens on delimiter, trimming whitespace.
func SplitURL(url string, delimiter rune) []string {
	parts := strings.Split(url, string(delimiter))
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Invalid wraps messages in a validation error, or returns nil when there are none.
func Invalid(url string, messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	return entities.NewValidationError(url, messages)
}

// RequireWorkingCopy checks that path contains the provider metadata marker.
func RequireWorkingCopy(path, marker string) error {
	if _, err := os.Stat(filepath.Join(path, marker)); err != nil {
		return entities.NewValidationError(path, []string{
			fmt.Sprintf("%s is not a working copy (no %s found)", path, marker),
		})
	}
	return nil
}

// RequireMessage fetches the commit message, which every check-in needs.
func RequireMessage(params *entities.CommandParameters) (string, error) {
	message, err := params.GetString(entities.ParamMessage)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(message) == "" {
		return "", &entities.ParameterError{
			Parameter: entities.ParamMessage,
			Reason:    entities.ErrMissingParameter,
			Detail:    "message must not be empty",
		}
	}
	return message, nil
}

// FilesOrAll returns the selected files, or "." when the file set selects the whole directory.
func FilesOrAll(fileSet entities.FileSet) []string {
	if fileSet.IsEmpty() {
		return []string{"."}
	}
	return fileSet.RelativePaths()
}

// RequireFiles fails when the file set selects nothing explicit.
func RequireFiles(cmd entities.CommandName, fileSet entities.FileSet) error {
	if fileSet.IsEmpty() {
		return &entities.ParameterError{
			Parameter: entities.ParamFiles,
			Reason:    entities.ErrMissingParameter,
			Detail:    fmt.Sprintf("%s needs an explicit file selection", cmd),
		}
	}
	return nil
}

// WriteMessageFile stores a commit message in a temporary file for tools that read it from disk.
// The caller removes the returned path.
func WriteMessageFile(message string) (string, error) {
	file, err := os.CreateTemp("", "scmforge-message-*.txt")
	if err != nil {
		return "", entities.NewScmError("write commit message", err)
	}
	defer file.Close()
	if _, writeErr := file.WriteString(message); writeErr != nil {
		_ = os.Remove(file.Name())
		return "", entities.NewScmError("write commit message", writeErr)
	}
	return file.Name(), nil
}

// FilesWithStatus converts paths into ScmFiles sharing one status.
func FilesWithStatus(paths []string, status entities.ScmFileStatus) []entities.ScmFile {
	files := make([]entities.ScmFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, entities.NewScmFile(filepath.ToSlash(p), status))
	}
	return files
}
