package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subcommandNames(cmd *cobra.Command) []string {
	kids := cmd.Commands()
	names := make([]string, 0, len(kids))
	for _, c := range kids {
		names = append(names, c.Name())
	}
	return names
}

func TestCommandTree(t *testing.T) {
	assert.Equal(t, "buyergroup", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	assert.Subset(t, subcommandNames(rootCmd),
		[]string{"run", "estimate", "profiles", "runs", "export", "warm", "serve"})
	assert.Subset(t, subcommandNames(profilesCmd), []string{"show"})
	assert.Subset(t, subcommandNames(runsCmd), []string{"show", "stats"})
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{runCmd, []string{"company", "alias", "profile", "search-budget", "collect-budget", "max-group-size", "early-stop", "dry-run", "out"}},
		{estimateCmd, []string{"company", "alias", "profile"}},
		{profilesCmd, []string{"validate"}},
		{runsCmd, []string{"status", "company", "limit"}},
		{exportCmd, []string{"run", "format", "out", "account"}},
		{warmCmd, []string{"source", "company"}},
		{serveCmd, []string{"port"}},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Name(), func(t *testing.T) {
			for _, name := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(name), "--%s missing on %s", name, tt.cmd.Name())
			}
		})
	}
}

func TestFlagDefaults(t *testing.T) {
	tests := []struct {
		cmd  *cobra.Command
		flag string
		want string
	}{
		{runCmd, "profile", "enterprise-saas"},
		{runsCmd, "limit", "50"},
		{exportCmd, "format", "xlsx"},
		// A zero port defers to the configured server port.
		{serveCmd, "port", "0"},
	}
	for _, tt := range tests {
		f := tt.cmd.Flags().Lookup(tt.flag)
		require.NotNil(t, f, "--%s missing on %s", tt.flag, tt.cmd.Name())
		assert.Equal(t, tt.want, f.DefValue, "--%s default on %s", tt.flag, tt.cmd.Name())
	}
}
