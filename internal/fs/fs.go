// Package fs holds some utilities for manipulating the file system where key
// material is stored.
package fs

import (
	"fmt"
	"os"
	"path"
)

const secureDirPerm = 0o740
const secureFilePerm = 0o600

// CreateSecureFolder checks if the folder exists with the appropriate
// permission rights, and creates it otherwise. Key share files live inside,
// so group/world access is refused.
func CreateSecureFolder(folder string) (string, error) {
	exists, err := Exists(folder)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := os.MkdirAll(folder, secureDirPerm); err != nil {
			return "", fmt.Errorf("fs: creating folder %q: %w", folder, err)
		}
		return folder, nil
	}
	info, err := os.Lstat(folder)
	if err != nil {
		return "", fmt.Errorf("fs: stat folder %q: %w", folder, err)
	}
	if perm := info.Mode().Perm(); perm&0o007 != 0 {
		return "", fmt.Errorf("fs: folder %q is world-accessible (%#o)", folder, perm)
	}
	return folder, nil
}

// Exists returns whether the given file or directory exists.
func Exists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return true, err
}

// CreateSecureFile creates a file with rw permission for the user only and
// returns the file handle.
func CreateSecureFile(file string) (*os.File, error) {
	fd, err := os.Create(file)
	if err != nil {
		return nil, err
	}
	if err := fd.Close(); err != nil {
		return nil, err
	}
	if err := os.Chmod(file, secureFilePerm); err != nil {
		return nil, err
	}
	return os.OpenFile(file, os.O_RDWR, secureFilePerm)
}

// FileExists returns true if the given name is a file in the given path.
func FileExists(filePath, name string) bool {
	file := path.Join(filePath, name)
	info, err := os.Stat(file)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
