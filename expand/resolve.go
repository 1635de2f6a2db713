package expand

import (
	"os"
	"path/filepath"
)

// IncludePathEnv names the environment variable holding the ordered,
// platform-separated list of include-root directories searched for
// angle-bracket includes (and quoted includes that resolve nowhere else).
const IncludePathEnv = "CPLUS_INCLUDE_PATH"

// rootsFromEnv resolves every entry of CPLUS_INCLUDE_PATH to an absolute
// path. Empty entries are skipped.
func rootsFromEnv() []string {
	var roots []string
	for _, p := range filepath.SplitList(os.Getenv(IncludePathEnv)) {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		roots = append(roots, abs)
	}
	return roots
}

// resolve maps an include target to an existing file. Quoted targets are
// searched in the including file's directory and then each successive
// ancestor directory up to the filesystem root; if nothing matches there
// (or the target was angle-bracketed) the configured include roots are
// searched in order. The boolean result is false when no candidate exists,
// which callers treat as a soft failure.
func (e *Expander) resolve(target string, quoted bool, from string) (string, bool) {
	if quoted {
		dir := filepath.Dir(from)
		for {
			cand := filepath.Join(dir, target)
			if isFile(cand) {
				return cand, true
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	for _, root := range e.roots {
		cand := filepath.Join(root, target)
		if isFile(cand) {
			return cand, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
