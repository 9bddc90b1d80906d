package nginst

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// State is a pipeline position. States only move forward.
type State int

const (
	StatePending State = iota
	StatePreBuild
	StateBuild
	StateInstall
	StatePostInstall
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePreBuild:
		return "pre-build"
	case StateBuild:
		return "build"
	case StateInstall:
		return "install"
	case StatePostInstall:
		return "post-install"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type stage struct {
	state State
	run   func(ctx context.Context) error
}

// Pipeline drives one package through pre-build, build, install and
// post-install exactly once.
type Pipeline struct {
	cfg     *InstallConfig
	pkg     *Package
	exec    *Executor
	fetcher *Fetcher
	rep     *reporter
	state   State
}

func NewPipeline(cfg *InstallConfig, pkg *Package, exec *Executor, fetcher *Fetcher, rep *reporter) *Pipeline {
	return &Pipeline{cfg: cfg, pkg: pkg, exec: exec, fetcher: fetcher, rep: rep}
}

// State returns the current pipeline position.
func (p *Pipeline) State() State { return p.state }

func (p *Pipeline) stages() []stage {
	return []stage{
		{StatePreBuild, p.preBuild},
		{StateBuild, p.build},
		{StateInstall, p.install},
		{StatePostInstall, p.postInstall},
	}
}

// Run executes every stage in order and stops at the first error.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.state != StatePending {
		return fmt.Errorf("pipeline already ran (state %s)", p.state)
	}
	for _, s := range p.stages() {
		p.state = s.state
		if err := ctx.Err(); err != nil {
			p.state = StateFailed
			return &StageError{Stage: s.state, Err: err}
		}
		if err := s.run(ctx); err != nil {
			p.state = StateFailed
			return &StageError{Stage: s.state, Err: err}
		}
	}
	p.state = StateDone
	return nil
}

func (p *Pipeline) sourceDir() string {
	return filepath.Join(p.pkg.Workspace, sourceDirName(p.pkg.Deps["source"].Path))
}

func (p *Pipeline) preBuild(ctx context.Context) error {
	if err := guardPreviousInstall(p.pkg.InstallPath); err != nil {
		return err
	}
	if err := cleanWorkspace(p.pkg.Workspace, p.cfg.Home, p.fetchedFiles(), p.rep); err != nil {
		return err
	}

	p.rep.Msg("creating workspace...")
	if err := ensureWorkspace(p.pkg.Workspace); err != nil {
		return err
	}

	for _, d := range sortedDeps(p.pkg.Deps) {
		if d.URL == "" {
			continue
		}
		if _, err := os.Stat(d.Path); err == nil {
			if d.Checksum != "" {
				p.rep.Warn("using existing file '%s' without checksum verification", d.File)
			}
			continue
		}
		p.rep.Msg("started downloading file '%s'", d.File)
		if err := p.fetcher.fetchDep(ctx, d); err != nil {
			return err
		}
		p.rep.Msg("finished downloading file '%s'", d.File)
	}

	p.rep.Msg("checking dependencies...")
	return checkAll(p.pkg.Deps)
}

// fetchedFiles lists workspace files that come from a URL and can be reused.
func (p *Pipeline) fetchedFiles() []string {
	var keep []string
	for _, d := range sortedDeps(p.pkg.Deps) {
		if d.URL != "" && filepath.Dir(d.Path) == filepath.Clean(p.pkg.Workspace) {
			keep = append(keep, filepath.Base(d.Path))
		}
	}
	return keep
}

func (p *Pipeline) build(ctx context.Context) error {
	archive := p.pkg.Deps["source"].Path
	p.rep.Msg("extracting '%s'", filepath.Base(archive))
	if err := p.extract(archive); err != nil {
		return err
	}

	srcDir := p.sourceDir()
	p.rep.Msg("running configure script")
	if err := p.run("running configure script", filepath.Join(srcDir, "configure"), p.pkg.ConfigureFlags, srcDir); err != nil {
		return err
	}

	p.rep.Msg("building the package (this may take awhile)...")
	return p.run("during the source code build", p.pkg.Deps["make"].Path, nil, srcDir)
}

// extract unpacks the source archive into the workspace root.
func (p *Pipeline) extract(archive string) error {
	if p.cfg.ExtractMode == ExtractNative {
		if err := extractNative(archive, p.pkg.Workspace); err != nil {
			return &ExternalCommandError{Desc: "extracting '" + archive + "'", Cmd: "extract", Args: []string{archive}, ExitCode: -1, Err: err}
		}
		return nil
	}
	return p.run("extracting '"+archive+"'", p.pkg.Deps["tar"].Path, tarArgs(archive), p.pkg.Workspace)
}

func (p *Pipeline) install(ctx context.Context) error {
	installPath := p.pkg.InstallPath
	p.rep.Msg("installing the package to '%s'", installPath)

	if err := os.MkdirAll(installPath, 0o755); err != nil {
		return &WorkspaceError{Msg: "could not create the installation directory", Path: installPath, Err: err}
	}

	args := []string{"DESTDIR=" + installPath, "install"}
	if err := p.run("during the installation", p.pkg.Deps["make"].Path, args, p.sourceDir()); err != nil {
		return err
	}

	p.rep.Msg("finished the installation to '%s'", installPath)
	return nil
}

func (p *Pipeline) postInstall(ctx context.Context) error {
	p.rep.Msg("running post-installation tasks...")

	prefix := filepath.Join(p.pkg.InstallPath, "usr/local/nginx")
	data := p.pkg.Deps["data"]
	htmlDir := filepath.Join(prefix, "html")
	if err := os.Rename(data.Path, filepath.Join(htmlDir, data.File)); err != nil {
		return &WorkspaceError{Msg: "could not move file '" + data.Path + "' to", Path: htmlDir, Err: err}
	}

	conf := filepath.Join(prefix, "conf/nginx.conf")
	if err := PatchListenPort(conf, p.cfg.Port); err != nil {
		return err
	}

	p.rep.Msg("package installation and configuration is complete")
	p.rep.Msg("%s can be executed by running '%s' from the command line", p.pkg.Name, invocationHint(prefix))
	return nil
}

// invocationHint is the command line that starts the installed server.
func invocationHint(prefix string) string {
	return fmt.Sprintf("%s -c %s -p %s",
		filepath.Join(prefix, "sbin/nginx"),
		filepath.Join(prefix, "conf/nginx.conf"),
		prefix)
}

// run invokes an external command and converts a failure into an
// ExternalCommandError described by desc.
func (p *Pipeline) run(desc, name string, args []string, dir string) error {
	code, err := p.exec.invoke(name, args, dir)
	if err != nil {
		return &ExternalCommandError{Desc: desc, Cmd: name, Args: args, ExitCode: code, Err: err}
	}
	return nil
}
