package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/constants"
	ignore "github.com/sabhiram/go-gitignore"
)

// FileHelper collects analyzable source files. It implements the domain
// FileCollector contract.
type FileHelper struct {
	respectGitignore bool
}

// NewFileHelper creates a new FileHelper. When respectGitignore is set, a
// .gitignore at a collection root excludes the paths it matches.
func NewFileHelper(respectGitignore bool) *FileHelper {
	return &FileHelper{respectGitignore: respectGitignore}
}

// CollectSourceFiles gathers supported files under the given paths. Exclude
// patterns match directory names and file base names; the default exclude
// set (node_modules, build outputs, ...) always applies.
func (h *FileHelper) CollectSourceFiles(paths []string, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if h.IsSupportedFile(path) && !isExcluded(path, excludePatterns) {
				files = append(files, path)
			}
			continue
		}

		matcher := h.gitignoreFor(path)
		err = filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				dirName := filepath.Base(filePath)
				if isExcludedDir(dirName, excludePatterns) {
					return filepath.SkipDir
				}
				if matcher != nil && filePath != path && matcher.MatchesPath(relTo(path, filePath)) {
					return filepath.SkipDir
				}
				return nil
			}

			if !h.IsSupportedFile(filePath) || isExcluded(filePath, excludePatterns) {
				return nil
			}
			if matcher != nil && matcher.MatchesPath(relTo(path, filePath)) {
				return nil
			}
			files = append(files, filePath)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// IsSupportedFile reports whether the path has a supported source extension
func (h *FileHelper) IsSupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range constants.SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// FileExists checks whether path is an existing regular file
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// gitignoreFor compiles the .gitignore at the collection root, if present
func (h *FileHelper) gitignoreFor(root string) *ignore.GitIgnore {
	if !h.respectGitignore {
		return nil
	}
	matcher, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return matcher
}

// relTo returns path relative to root for gitignore matching
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// isExcludedDir checks a directory name against the default and configured
// exclude sets
func isExcludedDir(dirName string, excludePatterns []string) bool {
	for _, excluded := range constants.DefaultExcludeDirs {
		if dirName == excluded {
			return true
		}
	}
	for _, pattern := range excludePatterns {
		if pattern == dirName {
			return true
		}
		if matched, _ := filepath.Match(pattern, dirName); matched {
			return true
		}
	}
	return false
}

// isExcluded checks a file path against the exclude patterns
func isExcluded(path string, excludePatterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range excludePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
