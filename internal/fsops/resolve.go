package fsops

import (
	"ayyy/internal/safety"
)

// ResolveReadPath validates a relative path against the read sandbox and
// returns the absolute path, for tools that hand the path to another library
// (e.g. a database driver) instead of reading it themselves.
func ResolveReadPath(relPath string) (string, error) {
	readRoot, _, err := getRoots()
	if err != nil {
		return "", err
	}
	return safety.ValidateRelPath(readRoot, relPath)
}
