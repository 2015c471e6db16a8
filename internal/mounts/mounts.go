// Package mounts provides abstracted file mounts to use as fs.FS filesystems in
// the portal. Callers may either use an embedded filesystem (the normal case,
// used for the sql statement files and the email templates) or, when a
// directory path is supplied, a directory on disk for development overrides.
// The package takes care of mounting the filesystem at the same level,
// something that does not happen by default with go:embed.
package mounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FileMount is a mount that may be backed by either an embedded fs.FS or a
// directory path.
type FileMount struct {
	MountName string
	fs.FS
}

// String describes a FileMount as an indented list of files and directories.
func (fm FileMount) String() string {
	o := fmt.Sprintf("fileMount %q:\n", fm.MountName)
	s, _ := printFS(fm.FS)
	return o + s
}

// ErrInvalidPath reports an invalid mount name.
type ErrInvalidPath struct {
	mountName string
}

// Error fulfills the error interface for ErrInvalidPath.
func (e ErrInvalidPath) Error() string {
	return fmt.Sprintf(
		"mount name %q is not a valid fs.ValidPath path, see https://pkg.go.dev/io/fs#ValidPath",
		e.mountName,
	)
}

// New takes an embedded fs.FS or a path to a directory. If dirPath is "", the
// embedded fs is used, otherwise the directory is mounted. The mountName names
// the subdirectory at which the embedded fs is re-rooted, so that
//
//	//go:embed sql
//	var sqlFS embed.FS
//	m, _ := mounts.New("sql", sqlFS, "")
//
// serves "schema.sql" rather than "sql/schema.sql".
func New(mountName string, embeddedFS fs.FS, dirPath string) (*FileMount, error) {

	if mountName == "" {
		return nil, errors.New("no mount name provided for new file mount")
	}
	if !fs.ValidPath(mountName) {
		return nil, ErrInvalidPath{mountName}
	}

	if dirPath == "" {
		subFS, err := fs.Sub(embeddedFS, mountName)
		if err != nil {
			return nil, fmt.Errorf("could not sub-mount embedded fs at %q: %v", mountName, err)
		}
		return &FileMount{mountName, subFS}, nil
	}

	s, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("new mount at %q error: %s", dirPath, err)
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("new mount at %q is not a directory", dirPath)
	}
	return &FileMount{mountName, os.DirFS(dirPath)}, nil
}

// printFS makes structured print output from an fs.FS.
func printFS(thisFS fs.FS) (string, error) {
	var b strings.Builder
	err := fs.WalkDir(thisFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		depth := strings.Count(path, "/")
		indent := strings.Repeat("  ", depth)
		typer := "f"
		if d.IsDir() {
			typer = "d"
		}
		_, err = fmt.Fprintf(&b, "%s[%s] %s (%s)\n", indent, typer, d.Name(), path)
		return err
	})
	return b.String(), err
}
