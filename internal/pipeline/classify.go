// Package pipeline decides which files get Jenkins Pipeline language features.
package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options control file detection. Zero value disables everything; use
// DefaultOptions for the stock behavior.
type Options struct {
	DetectJenkinsfile bool     `json:"detectJenkinsfile" yaml:"detectJenkinsfile"`
	DetectGroovy      bool     `json:"detectGroovy" yaml:"detectGroovy"`
	Patterns          []string `json:"patterns" yaml:"patterns"`
}

// DefaultOptions enables Jenkinsfile and .groovy detection with no extra patterns.
func DefaultOptions() Options {
	return Options{DetectJenkinsfile: true, DetectGroovy: true}
}

// Classifier reports whether a path qualifies as a Jenkins Pipeline file.
// Pure string matching, no I/O.
type Classifier struct {
	opts Options
}

func NewClassifier(opts Options) *Classifier {
	return &Classifier{opts: opts}
}

// IsPipelineFile returns true for Jenkinsfiles (bare or with an extension,
// case-insensitively), .groovy files, and paths matching a configured glob.
func (c *Classifier) IsPipelineFile(path string) bool {
	base := filepath.Base(path)

	if c.opts.DetectJenkinsfile && isJenkinsfileName(base) {
		return true
	}
	if c.opts.DetectGroovy && strings.EqualFold(filepath.Ext(base), ".groovy") {
		return true
	}

	slashed := filepath.ToSlash(path)
	for _, pattern := range c.opts.Patterns {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
		// Patterns without a separator are matched against the base name too,
		// so "*.jenkins" works for any directory.
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}

	return false
}

func isJenkinsfileName(base string) bool {
	name := strings.ToLower(base)
	switch {
	case name == "jenkinsfile":
		return true
	case strings.HasPrefix(name, "jenkinsfile."): // Jenkinsfile.deploy
		return true
	case strings.HasSuffix(name, ".jenkinsfile"): // deploy.jenkinsfile
		return true
	}
	return false
}
