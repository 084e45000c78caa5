package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rookhook/rook/internal/hook"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	return writeFile(t, dir, "rook.toml", content)
}

const validConfig = `
addr = "127.0.0.1"
port = 8888

[[hooks]]
type = "github"
url = "/hooks/gh"
secret_file = "gh.secret"
command_path = "/usr/local/bin/deploy.sh"
repo = "org/a"
events = ["push"]

[[hooks]]
type = "rook"
url = "/build"
secret_file = "build.secret"
command_path = "/usr/local/bin/build.sh"
`

func TestLoad_Valid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gh.secret", "gh-secret\n")
	writeFile(t, dir, "build.secret", "s3cr3t")
	path := writeConfig(t, dir, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8888", cfg.ListenAddr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Len(t, cfg.Hooks, 2)
	assert.NotEmpty(t, cfg.Fingerprint)
	assert.Len(t, cfg.Fingerprint, 64)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_BadTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "port = [not toml")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "missing port",
			config:  "[[hooks]]\ntype = \"rook\"\nurl = \"/b\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\n",
			wantErr: "port",
		},
		{
			name:    "bad log level",
			config:  "port = 8888\nlog_level = \"loud\"\n[[hooks]]\ntype = \"rook\"\nurl = \"/b\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\n",
			wantErr: "log_level",
		},
		{
			name:    "no hooks",
			config:  "port = 8888\n",
			wantErr: "no hooks",
		},
		{
			name:    "unknown hook type",
			config:  "port = 8888\n[[hooks]]\ntype = \"gitlab\"\nurl = \"/b\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\n",
			wantErr: "type must be github or rook",
		},
		{
			name:    "url without slash",
			config:  "port = 8888\n[[hooks]]\ntype = \"rook\"\nurl = \"build\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\n",
			wantErr: "url",
		},
		{
			name:    "empty command",
			config:  "port = 8888\n[[hooks]]\ntype = \"rook\"\nurl = \"/b\"\nsecret_file = \"s\"\n",
			wantErr: "command_path",
		},
		{
			name:    "github without repo",
			config:  "port = 8888\n[[hooks]]\ntype = \"github\"\nurl = \"/gh\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\nevents = [\"push\"]\n",
			wantErr: "repo",
		},
		{
			name:    "github without events",
			config:  "port = 8888\n[[hooks]]\ntype = \"github\"\nurl = \"/gh\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\nrepo = \"org/a\"\n",
			wantErr: "events",
		},
		{
			name:    "github unsupported event",
			config:  "port = 8888\n[[hooks]]\ntype = \"github\"\nurl = \"/gh\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\nrepo = \"org/a\"\nevents = [\"issues\"]\n",
			wantErr: "unsupported event",
		},
		{
			name:    "rook with events",
			config:  "port = 8888\n[[hooks]]\ntype = \"rook\"\nurl = \"/b\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\nevents = [\"push\"]\n",
			wantErr: "not valid for rook",
		},
		{
			name: "mixed types on one path",
			config: "port = 8888\n" +
				"[[hooks]]\ntype = \"github\"\nurl = \"/h\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\nrepo = \"org/a\"\nevents = [\"push\"]\n" +
				"[[hooks]]\ntype = \"rook\"\nurl = \"/h\"\nsecret_file = \"s\"\ncommand_path = \"/bin/true\"\n",
			wantErr: "type conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.config)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildHooks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gh.secret", "gh-secret\n")
	writeFile(t, dir, "build.secret", "  s3cr3t  ")
	path := writeConfig(t, dir, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	hooks, err := BuildHooks(cfg, path)
	require.NoError(t, err)
	require.Len(t, hooks, 2)

	gh := hooks[0]
	assert.Equal(t, hook.TypeGitHub, gh.Type)
	assert.Equal(t, "/hooks/gh", gh.URL)
	assert.Equal(t, []byte("gh-secret"), gh.Secret, "secret should be trimmed")
	assert.Equal(t, "org/a", gh.Repo)
	assert.True(t, gh.Events["push"])
	assert.False(t, gh.Events["deploy"])

	rk := hooks[1]
	assert.Equal(t, hook.TypeRook, rk.Type)
	assert.Equal(t, []byte("s3cr3t"), rk.Secret)

	// The result feeds straight into the route table.
	table, err := hook.BuildTable(hooks)
	require.NoError(t, err)
	assert.Equal(t, []string{"/build", "/hooks/gh"}, table.Paths())
}

func TestBuildHooks_UnreadableSecret(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "build.secret", "s3cr3t")
	path := writeConfig(t, dir, validConfig) // gh.secret not written

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = BuildHooks(cfg, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read secret")
}

func TestBuildHooks_EmptySecret(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gh.secret", "\n\n")
	writeFile(t, dir, "build.secret", "s3cr3t")
	path := writeConfig(t, dir, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = BuildHooks(cfg, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestFingerprintFile_Deterministic(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.toml", "port = 8888\n")

	fp1, err := FingerprintFile(path)
	require.NoError(t, err)
	fp2, err := FingerprintFile(path)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	other := writeFile(t, dir, "b.toml", "port = 8889\n")
	fp3, err := FingerprintFile(other)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}
