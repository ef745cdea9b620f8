package journal

import (
	"regexp"
	"strings"
)

// Category is a bucket of the package-manager classification.
type Category string

const (
	CategoryInstalled Category = "installed"
	CategoryUpdated   Category = "updated"
	CategoryReplaced  Category = "replaced"
	CategoryIgnored   Category = "ignored"
)

// Classification is the structured overlay derived from a package-manager
// result. Lists are never nil.
type Classification struct {
	Producer  string   `json:"producer"`
	Installed []string `json:"installed"`
	Updated   []string `json:"updated"`
	Replaced  []string `json:"replaced"`
	Ignored   []string `json:"ignored"`
}

type classifyRule struct {
	category Category
	pattern  *regexp.Regexp
}

// packageRules are evaluated in order; the first match claims the line.
// Capture group 1 is the package name.
var packageRules = []classifyRule{
	{CategoryInstalled, regexp.MustCompile(`(?:Dependency )?Installed:\n[ ]+?(.*)`)},
	{CategoryUpdated, regexp.MustCompile(`Updated:\n[ ]+?(.*)`)},
	{CategoryReplaced, regexp.MustCompile(`Replaced:\n[ ]+?(.*)`)},
	{CategoryIgnored, regexp.MustCompile(`(.*) providing (.*) is already installed`)},
}

// packageProducers are the modules whose results are classified.
var packageProducers = map[string]bool{
	"yum": true,
	"dnf": true,
}

// IsPackageProducer reports whether results of module get classified
func IsPackageProducer(module string) bool {
	return packageProducers[module]
}

// ClassifyLine returns the category and package name for one result line.
// Unmatched lines are expected and report ok=false.
func ClassifyLine(line string) (Category, string, bool) {
	for _, r := range packageRules {
		m := r.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return r.category, strings.TrimSpace(m[1]), true
	}
	return "", "", false
}

// Classify folds result lines into a Classification for producer
func Classify(producer string, lines []string) *Classification {
	c := &Classification{
		Producer:  producer,
		Installed: []string{},
		Updated:   []string{},
		Replaced:  []string{},
		Ignored:   []string{},
	}
	for _, line := range lines {
		category, name, ok := ClassifyLine(line)
		if !ok || name == "" {
			continue
		}
		switch category {
		case CategoryInstalled:
			c.Installed = append(c.Installed, name)
		case CategoryUpdated:
			c.Updated = append(c.Updated, name)
		case CategoryReplaced:
			c.Replaced = append(c.Replaced, name)
		case CategoryIgnored:
			c.Ignored = append(c.Ignored, name)
		}
	}
	return c
}
