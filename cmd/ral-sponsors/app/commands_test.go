package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
    "version": 1,
    "tiers": [
        {
            "id": "early_supporter",
            "name": "爱心维护员",
            "nameEn": "Early Supporter",
            "color": "#F39C12",
            "particleType": "none",
            "order": 20,
            "minAmount": 5
        }
    ],
    "sponsors": [
        {
            "id": "aabb01",
            "name": "Star",
            "avatarUrl": "https://pic1.afdiancdn.com/user/aabb01/avatar/aabb01_w.jpeg",
            "tier": "early_supporter",
            "joinDate": "2024-03"
        }
    ]
}`

func TestNewRootCmd(t *testing.T) {
	var cmd *cobra.Command
	assert.NotPanics(t, func() { cmd = NewRootCmd() }, "flag binding failures are non-fatal")

	assert.Equal(t, "ral-sponsors", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "fetch")
	assert.Contains(t, names, "validate")
	assert.Contains(t, names, "generate")
	assert.Contains(t, names, "watch")
	assert.Contains(t, names, "version")
}

func TestRunValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sponsors.json")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o644))

	require.NoError(t, runValidate(nil, []string{path}))
}

func TestRunValidateRejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sponsors.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1, "tiers": [], "sponsors": []}`), 0o644))

	err := runValidate(nil, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_field")
	assert.Contains(t, err.Error(), "tiers")
}

func TestRunValidateMissingFile(t *testing.T) {
	err := runValidate(nil, []string{filepath.Join(t.TempDir(), "nope.json")})
	require.Error(t, err)
}
