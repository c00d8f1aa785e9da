// Package security provides filesystem path validation.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks that a file path resolves inside the
// given directory. The daemon uses it to keep the home marker file pinned
// under the configured work directory: a config pointing the marker outside
// (via .. components or a symlinked work directory) is rejected at startup
// rather than silently writing elsewhere.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	// Resolve symlinks to canonical paths where the paths exist; a marker
	// file that has not been created yet resolves via its parent.
	canonicalSafeDir := absSafeDir
	if resolved, err := filepath.EvalSymlinks(absSafeDir); err == nil {
		canonicalSafeDir = resolved
	}
	canonicalPath := absPath
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		canonicalPath = resolved
	} else if os.IsNotExist(err) {
		if resolvedParent, perr := filepath.EvalSymlinks(filepath.Dir(absPath)); perr == nil {
			canonicalPath = filepath.Join(resolvedParent, filepath.Base(absPath))
		}
	}

	rel, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes directory %q", filePath, safeDir)
	}

	return nil
}
