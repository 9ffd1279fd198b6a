// Command modelwrench drives the compilation pipeline from a compilation
// description file: it loads every source file the description references
// through the file manager, runs the processing pipeline, and reports a
// one-line summary of what was produced.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/quinnarbor/modelwrench/internal/config"
	"github.com/quinnarbor/modelwrench/internal/filemanager"
	"github.com/quinnarbor/modelwrench/internal/input"
	"github.com/quinnarbor/modelwrench/internal/logging"
	"github.com/quinnarbor/modelwrench/internal/process"
)

func main() {
	var (
		inputPath    string
		exportDir    string
		settingsPath string
		logPath      string
		verbose      bool
	)

	flag.StringVar(&inputPath, "input", "", "path to a compilation description file (JSON or YAML)")
	flag.StringVar(&exportDir, "export", ".", "directory to report as the export target")
	flag.StringVar(&settingsPath, "settings", "", "optional path to a settings JSON file (defaults built in if omitted)")
	flag.StringVar(&logPath, "log", "", "optional path to a log file (logs to the console if omitted)")
	flag.BoolVar(&verbose, "v", false, "log info-level messages in addition to warnings and errors")
	flag.Usage = printUsage
	flag.Parse()

	if inputPath == "" {
		printUsage()
		os.Exit(2)
	}

	verbosity := logging.VerbosityWarning
	if verbose {
		verbosity = logging.VerbosityInfo
	}

	log, closeLog, err := buildLogger(logPath, verbosity)
	if err != nil {
		fmt.Printf("failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	settings := config.Default()
	if settingsPath != "" {
		settings, err = config.Load(settingsPath)
		if err != nil {
			fmt.Printf("failed to load settings: %v\n", err)
			os.Exit(1)
		}
	}

	start := time.Now()

	data, err := input.Load(inputPath)
	if err != nil {
		fmt.Printf("failed to load compilation description: %v\n", err)
		os.Exit(1)
	}

	manager := filemanager.NewManager(log)
	if err := manager.StartWatch(); err != nil {
		fmt.Printf("failed to start file watch: %v\n", err)
		os.Exit(1)
	}

	paths := sourceFiles(data)
	for _, path := range paths {
		manager.LoadFile(path)
	}
	if err := waitForLoads(manager, paths, 30*time.Second); err != nil {
		fmt.Printf("failed to load source files: %v\n", err)
		os.Exit(1)
	}

	result, err := process.Run(data, manager, settings, log)
	if err != nil {
		fmt.Printf("compile failed: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	fmt.Printf(
		"compiled %d bone(s), %d animation(s), %d sequence(s), %d model group(s) -> %s (%.2fs)\n",
		len(result.Bones.ProcessedBones),
		len(result.Animations.ProcessedAnimations),
		len(result.Sequences),
		len(result.Meshes.ModelGroups),
		exportDir,
		elapsed.Seconds(),
	)
}

// sourceFiles collects every distinct source file a compilation description
// references, across both model groups and named animations.
func sourceFiles(data *input.CompilationData) []string {
	seen := make(map[string]struct{})
	var paths []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, group := range data.ModelGroups {
		for _, model := range group.Models {
			add(model.SourceFile)
		}
	}
	for _, anim := range data.Animations {
		add(anim.SourceFile)
	}
	return paths
}

// waitForLoads polls the manager until every path has left the loading
// state. It returns an error naming the first path found failed or
// untracked, or a timeout error once the deadline passes.
func waitForLoads(manager *filemanager.Manager, paths []string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		pending := false
		for _, path := range paths {
			status, ok := manager.GetFileStatus(path)
			if !ok {
				return fmt.Errorf("%q is not tracked by the file manager", path)
			}
			switch status {
			case filemanager.StatusFailed:
				return fmt.Errorf("failed to load %q", path)
			case filemanager.StatusLoading:
				pending = true
			}
		}
		if !pending {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for source files to load")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func buildLogger(logPath string, verbosity logging.Verbosity) (logging.Logger, func(), error) {
	if logPath == "" {
		return logging.NewConsoleLogger(verbosity), func() {}, nil
	}
	fileLogger, err := logging.NewFileLogger(logPath, verbosity)
	if err != nil {
		return nil, nil, err
	}
	return fileLogger, func() { fileLogger.Close() }, nil
}

func printUsage() {
	fmt.Println("modelwrench: compile a skeletal model from a compilation description")
	fmt.Println()
	fmt.Println("usage:")
	fmt.Println("  modelwrench -input <path> [-export <dir>] [-settings <path>] [-log <path>] [-v]")
	fmt.Println()
	flag.PrintDefaults()
}
