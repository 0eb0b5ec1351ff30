package entities

import (
	"fmt"
	"sort"
)

// ScmFile is a path together with the status a command reported for it.
type ScmFile struct {
	Path   string        `yaml:"path"`
	Status ScmFileStatus `yaml:"status"`
}

func NewScmFile(path string, status ScmFileStatus) ScmFile {
	return ScmFile{Path: path, Status: status}
}

func (f ScmFile) String() string {
	return fmt.Sprintf("%s status: %s", f.Path, f.Status)
}

// SortScmFiles orders files by path, then by status.
func SortScmFiles(files []ScmFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Path == files[j].Path {
			return files[i].Status < files[j].Status
		}
		return files[i].Path < files[j].Path
	})
}
