package app

import (
	"os"
	"path/filepath"
)

// DirName is the per-user directory holding settings and the store
const DirName = ".auditjournal"

// Paths holds all resolved paths for the per-user layout
type Paths struct {
	UserHome string // $HOME
	Home     string // $HOME/.auditjournal
	Setting  string // $HOME/.auditjournal/setting.json
	Store    string // $HOME/.auditjournal/journal_callback.cache
	Archive  string // $HOME/.auditjournal/archive
}

// ResolvePaths returns all paths based on the HOME environment variable
func ResolvePaths() Paths {
	home := os.Getenv("HOME")
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		} else {
			home = "."
		}
	}
	return ResolvePathsFrom(home)
}

// ResolvePathsFrom returns all paths rooted at the given user home
func ResolvePathsFrom(userHome string) Paths {
	base := filepath.Join(userHome, DirName)
	return Paths{
		UserHome: userHome,
		Home:     base,
		Setting:  filepath.Join(base, "setting.json"),
		Store:    filepath.Join(base, "journal_callback.cache"),
		Archive:  filepath.Join(base, "archive"),
	}
}
