package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// LoadEnvFile reads a .env file and returns the variables as a map
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("env file not found: %s", path)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	return env, nil
}

// MergeEnv merges multiple environment maps in order, with later maps taking precedence
func MergeEnv(envMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, env := range envMaps {
		for k, v := range env {
			result[k] = v
		}
	}
	return result
}

// ProcessEnv returns the LOGVIEW_* variables of the current process
func ProcessEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, constants.EnvPrefix) {
			env[k] = v
		}
	}
	return env
}

// applyEnvironment layers overrides on top of the file configuration.
// Priority (lowest to highest):
// 1. The config file
// 2. The env_file named by the config
// 3. LOGVIEW_* variables of the process environment
func (c *Config) applyEnvironment(configDir string) error {
	var fileEnv map[string]string
	if c.EnvFile != "" {
		var err error
		fileEnv, err = LoadEnvFile(resolvePath(c.EnvFile, configDir))
		if err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	}

	if err := c.ApplyEnv(MergeEnv(fileEnv, ProcessEnv())); err != nil {
		return err
	}
	return Validate(c)
}

// ApplyEnv applies LOGVIEW_* overrides from env. Unknown variables are
// ignored; malformed values are errors.
func (c *Config) ApplyEnv(env map[string]string) error {
	var errs []string

	str := func(name string, dst *string) {
		if v, ok := env[constants.EnvPrefix+name]; ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := env[constants.EnvPrefix+name]; ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: must be an integer, got %q", constants.EnvPrefix, name, v))
				return
			}
			*dst = n
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := env[constants.EnvPrefix+name]; ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: must be a boolean, got %q", constants.EnvPrefix, name, v))
				return
			}
			*dst = b
		}
	}

	str("HOST", &c.Server.Host)
	num("PORT", &c.Server.Port)
	str("STATIC_DIR", &c.Server.StaticDir)
	num("MAX_MESSAGES", &c.Viewer.MaxMessages)
	if _, ok := env[constants.EnvPrefix+"LATEST_SIZE"]; ok {
		n := c.Viewer.Latest()
		num("LATEST_SIZE", &n)
		c.Viewer.LatestSize = &n
	}
	str("PARSER", &c.Parser.Name)
	flag("INDEX_KEYS", &c.Index.Keys)
	str("FILE", &c.Input.File)
	str("EXEC", &c.Input.Exec)
	flag("STDOUT", &c.Input.Stdout)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// resolvePath resolves a potentially relative path against a base directory
func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// FindConfigFile searches for a config file in the working directory
func FindConfigFile() (string, error) {
	candidates := []string{
		constants.DefaultConfigFile,
		"logview.yml",
		"logview.toml",
		".logview.yaml",
		".logview.yml",
		".logview.toml",
	}

	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w (tried: %v)", domain.ErrConfigNotFound, candidates)
}

// CheckFilePermissions checks if a file has secure permissions.
// On Unix-like systems, it verifies the file is not world-writable.
func CheckFilePermissions(path string) error {
	// Skip permission check on Windows
	if runtime.GOOS == "windows" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking file permissions: %w", err)
	}

	// World-writable = others have write (0002)
	if info.Mode().Perm()&0002 != 0 {
		return fmt.Errorf("config file %s has insecure permissions: world-writable files can be modified by any user. Please run: chmod o-w %s", path, path)
	}

	return nil
}
