// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/cljgo/interp/x/profiler"
)

func TestNewCallgrind(t *testing.T) {
	rt := newRuntime(t)
	p := profiler.NewCallgrindProfiler(rt)
	assert.Error(t, p.Enable(), "no output set")

	path := filepath.Join(t.TempDir(), "callgrind.test_prof")
	require.NoError(t, p.SetFile(path))
	require.NoError(t, p.Enable())
	assert.Error(t, p.SetFile(path), "profiler already enabled")
	runTestSource(t, rt)
	require.NoError(t, p.Complete())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, "events: Time_(ns) Memory_(bytes)")
	assert.Contains(t, out, "user/add-it")
	assert.Contains(t, out, "ENTRYPOINT")
	assert.Contains(t, out, "summary ")
}
