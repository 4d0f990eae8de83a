// Copyright © 2024 The ELPS authors

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.clj",
		"src/generated.clj",
		"lib/utils.clj",
	}
	result := filterExcludes(paths, []string{"generated.clj"})
	assert.Equal(t, []string{"src/main.clj", "lib/utils.clj"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.clj",
		"build/output.clj",
		"build/sub/deep.clj",
		"lib/utils.clj",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.clj", "lib/utils.clj"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.clj",
		"src/generated_foo.clj",
		"src/generated_bar.clj",
		"lib/utils.clj",
	}
	result := filterExcludes(paths, []string{"generated_*"})
	assert.Equal(t, []string{"src/main.clj", "lib/utils.clj"}, result)
}

func TestFilterExcludes_MultiplePatterns(t *testing.T) {
	paths := []string{
		"src/main.clj",
		"build/output.clj",
		"src/generated.clj",
		"lib/utils.clj",
	}
	result := filterExcludes(paths, []string{"build", "generated.clj"})
	assert.Equal(t, []string{"src/main.clj", "lib/utils.clj"}, result)
}

func TestFilterExcludes_NoMatches(t *testing.T) {
	paths := []string{
		"src/main.clj",
		"lib/utils.clj",
	}
	result := filterExcludes(paths, []string{"nonexistent"})
	assert.Equal(t, []string{"src/main.clj", "lib/utils.clj"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/main.clj"}
	result := filterExcludes(paths, nil)
	assert.Equal(t, []string{"src/main.clj"}, result)
}

func TestMatchesAny_FullPath(t *testing.T) {
	// filepath.Match on the full path
	assert.True(t, matchesAny("src/main.clj", []string{"src/*.clj"}))
	assert.False(t, matchesAny("lib/main.clj", []string{"src/*.clj"}))
}

func TestMatchesAny_BaseName(t *testing.T) {
	assert.True(t, matchesAny("deep/nested/generated.clj", []string{"generated.clj"}))
}

func TestMatchesAny_Component(t *testing.T) {
	assert.True(t, matchesAny("project/build/output.clj", []string{"build"}))
	assert.False(t, matchesAny("project/src/output.clj", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	components := splitPath("a/b/c.clj")
	assert.Contains(t, components, "c.clj")
	assert.Contains(t, components, "b")
	assert.Contains(t, components, "a")
}
