package nginst

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	packageName    = "nginx"
	packageVersion = "1.4.7"
	defaultPort    = "8080"
)

// Extraction modes for the source archive.
const (
	ExtractTar    = "tar"
	ExtractNative = "native"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Load the KEY=VALUE config file (if any) and apply NGINST_* env overrides.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}

	mergeEnvOverrides(cfg)
	return cfg, nil
}

// Merge NGINST_* and S3_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "NGINST_") || strings.HasPrefix(env, "S3_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

// S3Settings configures access to s3:// source URLs.
type S3Settings struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// InstallConfig is built once at startup and handed to every component.
type InstallConfig struct {
	Package        string
	Version        string
	Port           string
	Home           string
	WorkDir        string
	ExtractMode    string
	SourceURL      string
	DataURL        string
	SourceChecksum string
	Debug          bool
	S3             S3Settings
}

// newInstallConfig validates cfg values against the user's home directory.
func newInstallConfig(cfg *Config, home string) (*InstallConfig, error) {
	if home == "" {
		return nil, &ConfigError{Key: "HOME", Err: errors.New("home directory is not set")}
	}
	home, err := filepath.Abs(home)
	if err != nil {
		return nil, &ConfigError{Key: "HOME", Value: home, Err: err}
	}

	ic := &InstallConfig{
		Package:        packageName,
		Version:        packageVersion,
		Port:           defaultPort,
		Home:           home,
		WorkDir:        filepath.Join(home, packageName),
		ExtractMode:    ExtractTar,
		SourceURL:      fmt.Sprintf("http://nginx.org/download/%s-%s.tar.gz", packageName, packageVersion),
		DataURL:        "http://www.wikihow.com/images/sampledocs/7/Simple-Webpage.txt",
		SourceChecksum: strings.ToLower(cfg.Values["NGINST_SOURCE_B3SUM"]),
		Debug:          cfg.Values["NGINST_DEBUG"] == "1",
		S3: S3Settings{
			Endpoint:        strings.TrimRight(cfg.Values["S3_ENDPOINT"], "/"),
			Region:          cfg.Values["S3_REGION"],
			AccessKeyID:     cfg.Values["S3_ACCESS_KEY_ID"],
			SecretAccessKey: cfg.Values["S3_SECRET_ACCESS_KEY"],
		},
	}

	if port := cfg.Values["NGINST_PORT"]; port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return nil, &ConfigError{Key: "NGINST_PORT", Value: port, Err: err}
		}
		if n < 1 || n > 65535 {
			return nil, &ConfigError{Key: "NGINST_PORT", Value: port, Err: errors.New("port out of range 1-65535")}
		}
		ic.Port = strconv.Itoa(n)
	}

	if dir := cfg.Values["NGINST_WORKDIR"]; dir != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(home, dir)
		}
		ic.WorkDir = filepath.Clean(dir)
	}
	if !isUnder(ic.WorkDir, home) {
		return nil, &ConfigError{Key: "NGINST_WORKDIR", Value: ic.WorkDir, Err: errors.New("working directory must be inside the home directory")}
	}

	switch mode := cfg.Values["NGINST_EXTRACT"]; mode {
	case "", ExtractTar:
	case ExtractNative:
		ic.ExtractMode = ExtractNative
	default:
		return nil, &ConfigError{Key: "NGINST_EXTRACT", Value: mode, Err: errors.New("expected tar or native")}
	}

	if u := cfg.Values["NGINST_SOURCE_URL"]; u != "" {
		ic.SourceURL = u
	}
	if u := cfg.Values["NGINST_DATA_URL"]; u != "" {
		ic.DataURL = u
	}

	return ic, nil
}

// InstallPath is where `make install` stages the package.
func (c *InstallConfig) InstallPath() string {
	return filepath.Join(c.WorkDir, "httpd")
}

// isUnder reports whether path is strictly inside dir.
func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == "" {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
