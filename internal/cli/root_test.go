package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "chainseal", cmd.Use)
	assert.Contains(t, cmd.Long, "proof tokens")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"init", "mint", "advance", "show", "audit", "log"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "chainseal.db", dbFlag.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"show", "--format", "xml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMintCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	mintCmd, _, err := cmd.Find([]string{"mint"})
	require.NoError(t, err)

	ownerFlag := mintCmd.Flags().Lookup("owner")
	require.NotNil(t, ownerFlag)

	recordsFlag := mintCmd.Flags().Lookup("records")
	require.NotNil(t, recordsFlag)
	assert.Equal(t, "1", recordsFlag.DefValue)
}

func TestAdvanceCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	advanceCmd, _, err := cmd.Find([]string{"advance"})
	require.NoError(t, err)

	recordFlag := advanceCmd.Flags().Lookup("record")
	require.NotNil(t, recordFlag)
	assert.Equal(t, "0", recordFlag.DefValue)

	payloadFlag := advanceCmd.Flags().Lookup("payload")
	require.NotNil(t, payloadFlag)
	assert.Equal(t, "-1", payloadFlag.DefValue)
}
