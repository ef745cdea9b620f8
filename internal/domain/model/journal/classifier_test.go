package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		category Category
		pkg      string
		matched  bool
	}{
		{"installed", "Installed:\n  httpd-2.4.6-97", CategoryInstalled, "httpd-2.4.6-97", true},
		{"dependency installed", "Dependency Installed:\n  apr-1.4.8-7", CategoryInstalled, "apr-1.4.8-7", true},
		{"updated", "Updated:\n  openssl-1.0.2k-26", CategoryUpdated, "openssl-1.0.2k-26", true},
		{"replaced", "Replaced:\n  mariadb-libs-5.5", CategoryReplaced, "mariadb-libs-5.5", true},
		{"ignored", "foo providing bar is already installed", CategoryIgnored, "foo", true},
		{"unmatched", "Complete!", "", "", false},
		{"empty", "", "", "", false},
		{"installed without newline", "Installed: httpd", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, pkg, ok := ClassifyLine(tt.line)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.pkg, pkg)
		})
	}
}

func TestClassifyLine_FirstMatchWins(t *testing.T) {
	// Matches both the installed and the updated rule.
	line := "Installed:\n  kernel-3.10\nUpdated:\n  glibc-2.17"

	category, pkg, ok := ClassifyLine(line)

	assert.True(t, ok)
	assert.Equal(t, CategoryInstalled, category)
	assert.Equal(t, "kernel-3.10", pkg)
}

func TestClassify_Idempotent(t *testing.T) {
	lines := []string{
		"Installed:\n  httpd-2.4.6-97",
		"Updated:\n  openssl-1.0.2k",
		"garbage",
		"x providing y is already installed",
	}

	first := Classify("yum", lines)
	second := Classify("yum", lines)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"httpd-2.4.6-97"}, first.Installed)
	assert.Equal(t, []string{"openssl-1.0.2k"}, first.Updated)
	assert.Equal(t, []string{"x"}, first.Ignored)
	assert.Empty(t, first.Replaced)
}

func TestClassify_NoMatchYieldsEmptyLists(t *testing.T) {
	c := Classify("dnf", []string{"Nothing to do", "\x00\xff"})

	assert.NotNil(t, c.Installed)
	assert.NotNil(t, c.Updated)
	assert.NotNil(t, c.Replaced)
	assert.NotNil(t, c.Ignored)
	assert.Empty(t, c.Installed)
}

func TestIsPackageProducer(t *testing.T) {
	assert.True(t, IsPackageProducer("yum"))
	assert.True(t, IsPackageProducer("dnf"))
	assert.False(t, IsPackageProducer("command"))
}
