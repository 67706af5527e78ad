package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, constants.DefaultHost, c.Server.Host)
	assert.Equal(t, constants.DefaultPort, c.Server.Port)
	assert.Equal(t, constants.DefaultMaxMessages, c.Viewer.MaxMessages)
	assert.Equal(t, constants.DefaultLatestSize, c.Viewer.Latest())
	assert.Equal(t, constants.DefaultPingInterval, c.Viewer.Ping())
	assert.Equal(t, constants.DefaultWriteTimeout, c.Viewer.Write())
	assert.Equal(t, "json", c.Parser.Name)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.Equal(t, "stdin", c.InputDescription())
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
server:
  host: 0.0.0.0
  port: 9000
  static_dir: ./ui
viewer:
  max_messages: 50
  latest_size: 0
  ping_interval: 15s
index:
  keys: true
parser:
  name: text
input:
  file: /var/log/app.log
  from_start: true
log:
  level: debug
  format: json
`)

	c, err := Parse(data, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", c.Server.Host)
	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, "./ui", c.Server.StaticDir)
	assert.Equal(t, 50, c.Viewer.MaxMessages)
	assert.Equal(t, 0, c.Viewer.Latest())
	assert.Equal(t, 15*time.Second, c.Viewer.Ping())
	assert.True(t, c.Index.Keys)
	assert.Equal(t, "text", c.Parser.Name)
	assert.True(t, c.Input.FromStart)
	assert.Equal(t, "file: /var/log/app.log", c.InputDescription())
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
}

func TestParse_TOML(t *testing.T) {
	data := []byte(`
env_file = ".env"

[server]
port = 8100

[viewer]
max_messages = 25
latest_size = 5

[parser]
name = "json"
expand_nested = true

[input]
exec = "journalctl -f -o json"
`)

	c, err := Parse(data, FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultHost, c.Server.Host)
	assert.Equal(t, 8100, c.Server.Port)
	assert.Equal(t, 25, c.Viewer.MaxMessages)
	assert.Equal(t, 5, c.Viewer.Latest())
	assert.True(t, c.Parser.ExpandNested)
	assert.Equal(t, ".env", c.EnvFile)
	assert.Equal(t, "exec: journalctl -f -o json", c.InputDescription())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("server: [nope"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte("[server\nport="), FormatTOML)
	assert.Error(t, err)

	_, err = Parse([]byte("parser:\n  name: xml\n"), FormatYAML)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "logview.yaml", "server:\n  port: 8123\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, c.Server.Port)
	assert.Equal(t, path, c.Path)
}

func TestLoad_TOMLByExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "logview.toml", "[server]\nport = 8124\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8124, c.Server.Port)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoad_WorldWritable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "logview.yaml", "server:\n  port: 8000\n")
	require.NoError(t, os.Chmod(path, 0o666))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure permissions")
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "LOGVIEW_PORT=8200\nLOGVIEW_INDEX_KEYS=true\nLOGVIEW_PARSER=text\n")
	path := writeFile(t, dir, "logview.yaml", "env_file: .env\nserver:\n  port: 8100\n")

	// Process environment wins over the env file
	t.Setenv("LOGVIEW_PARSER", "json")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8200, c.Server.Port)
	assert.True(t, c.Index.Keys)
	assert.Equal(t, "json", c.Parser.Name)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "logview.yaml", "env_file: missing.env\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env file not found")
}

func TestLoadOrDefault(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOGVIEW_MAX_MESSAGES", "42")

	c, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 42, c.Viewer.MaxMessages)
	assert.Empty(t, c.Path)

	writeFile(t, ".", "logview.toml", "[server]\nport = 8300\n")
	c, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 8300, c.Server.Port)
	assert.Equal(t, "logview.toml", c.Path)
}
