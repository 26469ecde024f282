package lsp

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jenkinsdoc/jenkinsfile-ls/internal/config"
)

// FunctionMatch locates a Groovy function declaration found by scanning
// candidate files. Not cached: files may change between requests.
type FunctionMatch struct {
	Path   string
	Line   int // zero-based
	Name   string
	Params string
}

// skipDirs are pruned from candidate file walks.
var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	".svn": true, "__pycache__": true,
}

// DefinitionResolver scans sibling source files for function declarations.
// Resolution is a best-effort lexical match, not a semantic binding: the
// first declaration with the right name wins, and receiver names are not
// matched against file names since library aliasing is dynamic.
type DefinitionResolver struct {
	budget config.Definition
	logger *zap.Logger
}

func NewDefinitionResolver(budget config.Definition, logger *zap.Logger) *DefinitionResolver {
	return &DefinitionResolver{budget: budget, logger: logger}
}

// Resolve scans candidates in order for a declaration of member and returns
// the first match. A nil result means nothing was found, which is normal:
// most receivers (sh, docker, env) are not go-to-definition targets. Budget
// exhaustion and unreadable files also yield nil, never an error.
func (dr *DefinitionResolver) Resolve(ctx context.Context, member string, candidates []string) *FunctionMatch {
	if !isGroovyIdent(member) {
		return nil
	}

	pattern, err := regexp.Compile(
		`^\s*(?:def|void|String|int|long|boolean|Object|[A-Za-z_][A-Za-z0-9_<>\[\]]*)\s+` +
			regexp.QuoteMeta(member) + `\s*\(([^)]*)`)
	if err != nil {
		return nil
	}

	deadline := time.Now().Add(dr.budget.Timeout)
	scanned := 0

	for _, path := range candidates {
		if ctx.Err() != nil || time.Now().After(deadline) {
			dr.logger.Debug("definition scan aborted",
				zap.String("member", member), zap.Int("filesScanned", scanned))
			return nil
		}
		if scanned >= dr.budget.MaxFiles {
			dr.logger.Debug("definition scan hit file cap",
				zap.String("member", member), zap.Int("maxFiles", dr.budget.MaxFiles))
			return nil
		}
		scanned++

		match := dr.scanFile(path, member, pattern)
		if match != nil {
			return match
		}
	}
	return nil
}

// scanFile looks for the declaration pattern line by line. A failed read
// means the file yields no match; resolution continues with the next one.
func (dr *DefinitionResolver) scanFile(path, member string, pattern *regexp.Regexp) *FunctionMatch {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > dr.budget.MaxFileSize {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		dr.logger.Debug("skipping unreadable candidate", zap.String("path", path), zap.Error(err))
		return nil
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), int(dr.budget.MaxFileSize))

	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		// Cheap containment check before the regex.
		if strings.Contains(line, member) {
			if m := pattern.FindStringSubmatch(line); m != nil {
				return &FunctionMatch{
					Path:   path,
					Line:   lineNo,
					Name:   member,
					Params: strings.TrimSpace(m[1]),
				}
			}
		}
		lineNo++
	}
	return nil
}

// CandidateFiles gathers workspace .groovy files in walk order, bounded by
// the file budget. The cap guards the walk itself on huge trees.
func (dr *DefinitionResolver) CandidateFiles(root string) []string {
	if root == "" {
		return nil
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries yield no candidates
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".groovy") {
			files = append(files, path)
			if len(files) >= dr.budget.MaxFiles {
				return fmt.Errorf("file cap reached")
			}
		}
		return nil
	})
	if err != nil {
		dr.logger.Debug("candidate walk stopped early",
			zap.String("root", root), zap.Int("files", len(files)))
	}
	return files
}

func isGroovyIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
