package cmd

import (
	"bytes"
	"testing"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/rttidump/internal/config"
	"github.com/dbsmedya/rttidump/internal/hook"
	"github.com/dbsmedya/rttidump/internal/memory"
)

func disableColor(t *testing.T) {
	t.Helper()
	saved := color.Enable
	color.Enable = false
	t.Cleanup(func() { color.Enable = saved })
}

func TestParseSignatureFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		want    []config.Signature
		wantErr bool
	}{
		{
			name:  "single",
			flags: []string{"RegisterType=40 55 ? 8B"},
			want:  []config.Signature{{Name: "RegisterType", Pattern: "40 55 ? 8B"}},
		},
		{
			name:  "trimmed",
			flags: []string{" RegisterAllTypes = 48 89 5C 24 ", "B=CC"},
			want: []config.Signature{
				{Name: "RegisterAllTypes", Pattern: "48 89 5C 24"},
				{Name: "B", Pattern: "CC"},
			},
		},
		{name: "missing separator", flags: []string{"40 55"}, wantErr: true},
		{name: "empty name", flags: []string{"=40 55"}, wantErr: true},
		{name: "empty pattern", flags: []string{"RegisterType="}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSignatureFlags(tt.flags)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintLocations(t *testing.T) {
	disableColor(t)

	space := memory.NewSparse()
	require.NoError(t, space.Map(".text", 0x140001000, []byte{0xCC, 0x40, 0x55, 0x48, 0x8B, 0xCC}))

	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)

	err := printLocations(c, hook.NewLocator(space), []config.Signature{
		{Name: "RegisterAllTypes", Pattern: "40 55 ? 8B"},
		{Name: "RegisterType", Pattern: "40 55 00"},
	})
	require.Error(t, err)
	assert.Equal(t, "1 of 2 signatures not found", err.Error())

	out := buf.String()
	assert.Contains(t, out, "✔ RegisterAllTypes: 0x140001001")
	assert.Contains(t, out, "✘ RegisterType: hook: pattern not found")
}

func TestPrintLocations_AllFound(t *testing.T) {
	disableColor(t)

	space := memory.NewSparse()
	require.NoError(t, space.Map(".text", 0x1000, []byte{0x40, 0x55}))

	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)

	err := printLocations(c, hook.NewLocator(space), []config.Signature{{Name: "A", Pattern: "40 55"}})
	require.NoError(t, err)
	assert.Equal(t, "✔ A: 0x1000\n", buf.String())
}
