package nginst

import (
	"maps"
	"os/exec"
	"path"
	"path/filepath"
	"slices"

	"golang.org/x/sys/unix"
)

// DependencyKind says how a dependency is verified.
type DependencyKind int

const (
	KindExecutable DependencyKind = iota
	KindFile
)

func (k DependencyKind) String() string {
	if k == KindExecutable {
		return "executable"
	}
	return "file"
}

// Dependency describes a required tool or file and where to get it.
type Dependency struct {
	Name     string
	Kind     DependencyKind
	File     string
	Path     string
	URL      string
	Checksum string // optional BLAKE3 hex digest
}

// Package is the single build recipe run by the pipeline.
type Package struct {
	Name           string
	Version        string
	Workspace      string
	InstallPath    string
	Deps           map[string]Dependency
	ConfigureFlags []string
}

// nginxPackage builds the nginx recipe from cfg. Executables are resolved on
// PATH now; a missing tool keeps an empty path and fails checkAll later.
func nginxPackage(cfg *InstallConfig) *Package {
	source := archiveName(cfg.SourceURL, cfg.Package+"-"+cfg.Version+".tar.gz")

	return &Package{
		Name:        cfg.Package,
		Version:     cfg.Version,
		Workspace:   cfg.WorkDir,
		InstallPath: cfg.InstallPath(),
		Deps: map[string]Dependency{
			"tar":  executable("tar"),
			"make": executable("make"),
			"g++":  executable("g++"),
			"source": {
				Name:     "source",
				Kind:     KindFile,
				File:     source,
				Path:     filepath.Join(cfg.WorkDir, source),
				URL:      cfg.SourceURL,
				Checksum: cfg.SourceChecksum,
			},
			"data": {
				Name: "data",
				Kind: KindFile,
				File: "index.html",
				Path: filepath.Join(cfg.WorkDir, "index.html"),
				URL:  cfg.DataURL,
			},
		},
		ConfigureFlags: []string{
			"--without-mail_smtp_module",
			"--without-mail_imap_module",
			"--without-mail_pop3_module",
			"--without-http_rewrite_module",
			"--without-http_gzip_module",
		},
	}
}

func executable(name string) Dependency {
	return Dependency{Name: name, Kind: KindExecutable, File: name, Path: which(name)}
}

// archiveName takes the file name from a source URL, falling back to def
// when the URL does not end in a tar archive name.
func archiveName(rawURL, def string) string {
	base := path.Base(rawURL)
	if archiveSuffix(base) == "" || sourceDirName(base) == "" {
		return def
	}
	return base
}

// which returns the full path of a command on PATH, or "" if not found.
func which(file string) string {
	p, err := exec.LookPath(file)
	if err != nil {
		return ""
	}
	return p
}

// sortedDeps returns deps in name order so checks and fetches are reproducible.
func sortedDeps(deps map[string]Dependency) []Dependency {
	out := make([]Dependency, 0, len(deps))
	for _, name := range slices.Sorted(maps.Keys(deps)) {
		out = append(out, deps[name])
	}
	return out
}

// checkAll verifies every dependency and stops at the first failure.
func checkAll(deps map[string]Dependency) error {
	for _, d := range sortedDeps(deps) {
		if err := checkDep(d); err != nil {
			return err
		}
	}
	return nil
}

func checkDep(d Dependency) error {
	mode := uint32(unix.R_OK)
	if d.Kind == KindExecutable {
		mode = unix.X_OK
	}
	if d.Path == "" || unix.Access(d.Path, mode) != nil {
		return &DependencyError{Name: d.Name, Kind: d.Kind, Path: d.Path}
	}
	return nil
}
