package nginst

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// printHelp prints usage and the recognised settings
func printHelp() {
	colSuccess.Println("Usage: nginst [help|version]")
	fmt.Println()
	color.Info.Println("Downloads, builds and installs nginx " + packageVersion + " under $HOME.")
	fmt.Println()
	color.Info.Println("Settings (" + ConfigFile + " or environment):")
	settings := [][2]string{
		{"NGINST_PORT", "port nginx listens on (default " + defaultPort + ")"},
		{"NGINST_WORKDIR", "working directory inside $HOME (default $HOME/" + packageName + ")"},
		{"NGINST_EXTRACT", "tar (default) or native"},
		{"NGINST_SOURCE_URL", "override the source tarball URL (http, https or s3)"},
		{"NGINST_DATA_URL", "override the sample index.html URL"},
		{"NGINST_SOURCE_B3SUM", "expected BLAKE3 digest of a downloaded tarball"},
		{"NGINST_DEBUG", "1 to show build output"},
		{"S3_ENDPOINT, S3_REGION", "S3-compatible endpoint for s3:// URLs"},
		{"S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY", "static S3 credentials"},
	}
	for _, s := range settings {
		fmt.Print("  ")
		color.Bold.Printf("%-40s", s[0])
		cPrintf(colInfo, "%s\n", s[1])
	}
}

// Main is the CLI entrypoint.
func Main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "version", "--version":
			fmt.Printf("nginst %s (built %s)\n", version, buildDate)
			return exitOK
		case "help", "-h", "--help":
			printHelp()
			return exitOK
		default:
			printHelp()
			return exitFailure
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			colArrow.Print("\n-> ")
			color.Danger.Printf("Received %v. Cancelling process gracefully\n", sig)
			cancel()
			select {
			case <-sigs:
				colArrow.Print("\n-> ")
				color.Danger.Println("Second interrupt received. Forcing immediate exit.")
				os.Exit(exitInterrupted)
			case <-time.After(10 * time.Second):
			}
		case <-ctx.Done():
		}
	}()

	rep := &reporter{Tag: packageName}

	configPath := ConfigFile
	if p := os.Getenv("NGINST_CONFIG"); p != "" {
		configPath = p
	}
	values, err := loadConfig(configPath)
	if err != nil {
		rep.Err("could not read configuration file '"+configPath+"'", err)
		return exitFailure
	}
	home, _ := os.UserHomeDir()
	cfg, err := newInstallConfig(values, home)
	if err != nil {
		msg, cause := describe(err)
		rep.Err(msg, cause)
		return exitFailure
	}
	Debug = cfg.Debug

	err = runInstall(ctx, cfg, rep)
	if err != nil {
		msg, cause := describe(err)
		rep.Err(msg, cause)
	}
	return exitCode(err)
}

// runInstall wires the components for cfg and runs the pipeline.
func runInstall(ctx context.Context, cfg *InstallConfig, rep *reporter) error {
	exec := NewExecutor(ctx)
	if cfg.Debug {
		exec.Output = os.Stdout
	}
	fetcher := &Fetcher{
		Client:   newHttpClient(),
		S3Config: cfg.S3,
		Bar:      rep.Out == nil && stderrIsTerminal(),
		Progress: func(percent int, written, total int64) {
			if total > 0 {
				rep.Msg("downloading file... (%d / %d bytes)", written, total)
				return
			}
			rep.Msg("downloading file... (%d bytes)", written)
		},
	}
	return NewPipeline(cfg, nginxPackage(cfg), exec, fetcher, rep).Run(ctx)
}
