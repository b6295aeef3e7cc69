package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestVersionCommandStructure(t *testing.T) {
	assert.NotNil(t, versionCmd)
	assert.Equal(t, "version", versionCmd.Use)
	assert.NotEmpty(t, versionCmd.Short)
	assert.NotNil(t, versionCmd.Run)
}

func TestRunVersion(t *testing.T) {
	originalVersion, originalCommit := Version, Commit
	defer func() {
		Version, Commit = originalVersion, originalCommit
	}()
	Version, Commit = "1.2.0", "abc123"

	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	runVersion(c, nil)

	out := buf.String()
	for _, want := range []string{"rttidump version 1.2.0", "Commit: abc123", "Layouts: [ds hfw]", "Go version:", "OS/Arch:"} {
		assert.Contains(t, out, want)
	}
}
