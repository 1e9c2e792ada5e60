package extcmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scanbinder/internal/config"
)

func storeWith(t *testing.T, global string) *config.Store {
	t.Helper()
	store, _, err := config.LoadData("config.yaml", []byte("global:\n  targets: a\n"+global), "", nil, nil)
	require.NoError(t, err)
	return store
}

func TestEnvFromConfig(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "tools.env")
	require.NoError(t, os.WriteFile(envFile, []byte("MAGICK_TMPDIR=/scratch\n# comment\nGS_LIB=\"/opt/gs\"\n"), 0o600))

	env, err := EnvFromConfig(storeWith(t, "  env-file: "+envFile+"\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"MAGICK_TMPDIR": "/scratch", "GS_LIB": "/opt/gs"}, env)

	env, err = EnvFromConfig(storeWith(t, ""))
	require.NoError(t, err)
	assert.Empty(t, env)

	_, err = EnvFromConfig(storeWith(t, "  env-file: "+filepath.Join(dir, "missing.env")+"\n"))
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestFromConfigRequiresPath(t *testing.T) {
	_, err := FromConfig(storeWith(t, ""))
	assert.ErrorIs(t, err, config.ErrOptionMissing)

	r, err := FromConfig(storeWith(t, "  path: /opt/bin\n"))
	require.NoError(t, err)
	assert.Contains(t, r.Env(), "PATH=/opt/bin")
}
