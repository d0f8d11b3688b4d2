package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// DefinitionsFile is the definitions file name looked up when none is given.
const DefinitionsFile = "vars.locations"

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// FindDefinitions looks for DefinitionsFile next to the source and then in
// the working directory. It returns "" when neither exists.
func FindDefinitions(sourcePath string) (string, error) {
	_, baseDir, err := GetPathInfo(sourcePath)
	if err != nil {
		return "", err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for _, dir := range []string{baseDir, cwd} {
		candidate := filepath.Join(dir, DefinitionsFile)
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}

	return "", nil
}
