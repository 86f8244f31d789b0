package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "video-pipeline <not provided>")
}

func TestProbeCommandRequiresFile(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"probe"})
	assert.Error(t, cmd.Execute())
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("chatty")
	assert.Error(t, err)

	log, err := newLogger("warn")
	require.NoError(t, err)
	assert.Equal(t, "warning", log.GetLevel().String())
}
