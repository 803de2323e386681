package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/louist103/OTRExporter/bank"
	"github.com/louist103/OTRExporter/config"
	"github.com/louist103/OTRExporter/export"
	"github.com/louist103/OTRExporter/pck"
	"github.com/louist103/OTRExporter/sink"
)

var packageExtensions = []string{".pck", ".otr"}

var inputPath string
var outputPath string
var configPath string
var shouldInspect bool
var shouldValidate bool
var jobs int
var verbose bool

type flagError string

func init() {
	const (
		usage = "the path to the input. This is a bank manifest (.yaml, .json, " +
			".jsonc or .cbor) when exporting or validating, and a resource " +
			"package when inspect is used."
		flagName = "input"
	)
	pflag.StringVarP(&inputPath, flagName, "i", "", usage)
}

func init() {
	const (
		usage = "the directory or package file to write artifacts to. A path " +
			"ending in .pck or .otr is written as a single resource package. " +
			"Overrides output.path from the config file."
		flagName = "output"
	)
	pflag.StringVarP(&outputPath, flagName, "o", "", usage)
}

func init() {
	const (
		usage    = "the path to a YAML config file. Defaults are used if omitted."
		flagName = "config"
	)
	pflag.StringVarP(&configPath, flagName, "c", "", usage)
}

func init() {
	const (
		usage = "list the entries of the resource package given by input and " +
			"verify each of them against its recorded hash."
		flagName = "inspect"
	)
	pflag.BoolVar(&shouldInspect, flagName, false, usage)
}

func init() {
	const (
		usage = "load and check the bank manifest given by input without " +
			"writing any artifacts."
		flagName = "validate"
	)
	pflag.BoolVar(&shouldValidate, flagName, false, usage)
}

func init() {
	const (
		usage = "the number of artifacts encoded concurrently. Overrides jobs " +
			"from the config file."
		flagName = "jobs"
	)
	pflag.IntVarP(&jobs, flagName, "j", 0, usage)
}

func init() {
	const (
		usage    = "log every artifact as it is written."
		flagName = "verbose"
	)
	pflag.BoolVarP(&verbose, flagName, "v", false, usage)
}

func verifyFlags() {
	var err flagError
	switch {
	case inputPath == "":
		err = "input cannot be empty"
	case shouldInspect && shouldValidate:
		err = "Both inspect and validate cannot be specified"
	case pflag.CommandLine.Changed("jobs") && jobs < 1:
		err = "jobs must be at least 1"
	}

	if err != "" {
		pflag.Usage()
		log.Fatal(err)
	}
}

// loadConfig returns the config file, or the defaults, with the command line
// flags applied on top.
func loadConfig() *config.Config {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			log.Fatalln("Could not load config file:", err)
		}
	}

	if outputPath != "" {
		cfg.Output.Path = outputPath
		cfg.Output.Kind = config.OutputDir
		if contains(packageExtensions, filepath.Ext(outputPath)) {
			cfg.Output.Kind = config.OutputPackage
		}
	}
	if pflag.CommandLine.Changed("jobs") {
		cfg.Jobs = jobs
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalln("Invalid configuration:", err)
	}
	return cfg
}

// newLogger returns a logger writing to stderr: human-readable text on a
// terminal and JSON otherwise.
func newLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

func contains(sources []string, target string) bool {
	for _, s := range sources {
		if s == target {
			return true
		}
	}
	return false
}

func heading(s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Render(s)
}

func inspect(logger *slog.Logger) {
	pkg, err := pck.Open(inputPath)
	if err != nil {
		log.Fatalln("Could not parse resource package:", err)
	}
	defer pkg.Close()

	fmt.Println(heading(inputPath))
	fmt.Print(pkg)

	failed := 0
	var total uint64
	for _, desc := range pkg.Entries() {
		if _, err := pkg.ReadEntry(desc.Path); err != nil {
			logger.Error("entry is corrupt", "path", desc.Path, "error", err)
			failed++
			continue
		}
		total += uint64(desc.Size)
	}
	if failed > 0 {
		logger.Error("package has corrupt entries", "count", failed)
		os.Exit(1)
	}
	fmt.Printf("Verified %d entries, %s in total\n", len(pkg.Entries()),
		humanize.Bytes(total))
}

func validate(logger *slog.Logger) {
	b, err := bank.Load(inputPath)
	if err != nil {
		log.Fatalln("Could not load bank manifest:", err)
	}
	if err := b.Validate(); err != nil {
		logger.Error("bank is invalid", "bank", b.Name, "error", err)
		os.Exit(1)
	}
	fmt.Printf("%s is valid: %d samples, %d soundfonts, %d sequences\n",
		heading(b.Name), len(b.Samples), len(b.SoundFonts), len(b.Sequences))
}

func exportBank(cfg *config.Config, logger *slog.Logger) {
	b, err := bank.Load(inputPath)
	if err != nil {
		log.Fatalln("Could not load bank manifest:", err)
	}

	var dst export.Sink
	var pkg *pck.File
	switch cfg.Output.Kind {
	case config.OutputPackage:
		pkg = pck.New(cfg.CompressionTag())
		dst = pkg
	default:
		dst = sink.NewDir(cfg.Output.Path)
	}

	report, err := export.New(dst, cfg.Options(), logger).Export(b)
	if err != nil {
		logger.Error("export failed", "bank", b.Name, "error", err)
		os.Exit(1)
	}
	if pkg != nil {
		if err := pkg.WriteFile(cfg.Output.Path); err != nil {
			log.Fatalln("Could not write resource package:", err)
		}
	}

	fmt.Println(heading(b.Name))
	fmt.Printf("Successfully wrote %d artifact(s) to %s\n", report.Artifacts,
		cfg.Output.Path)
	fmt.Printf("Wrote %s in total\n", humanize.Bytes(uint64(report.Bytes)))
}

func main() {
	pflag.Parse()
	verifyFlags()
	cfg := loadConfig()
	logger := newLogger(cfg.Level())
	slog.SetDefault(logger)

	switch {
	case shouldInspect:
		inspect(logger)
	case shouldValidate:
		validate(logger)
	default:
		exportBank(cfg, logger)
	}
}
