// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luthersystems/cljgo/interp/x/profiler"
)

func TestNewPprofAnnotator(t *testing.T) {
	rt := newRuntime(t)
	ppa := profiler.NewPprofAnnotator(rt, nil)
	assert.NoError(t, ppa.Enable())
	assert.True(t, ppa.IsEnabled())
	runTestSource(t, rt)
	assert.NoError(t, ppa.Complete())
}
