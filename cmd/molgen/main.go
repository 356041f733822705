package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/kohnsham/molgen/internal/config"
	"github.com/kohnsham/molgen/internal/engine"
	"github.com/kohnsham/molgen/internal/generator"
	"github.com/kohnsham/molgen/internal/molecule"
)

// manifestFile records the structures written during all sessions in the
// working directory.
const manifestFile = "mindless.molecules"

// CLI flags parsed from command line. Numeric values of -1 mean "not set",
// so the config file keeps precedence over absent flags.
type cliFlags struct {
	Config      string
	Molecules   int
	Parallel    int
	Verbosity   int
	PrintConfig bool
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("molgen", flag.ContinueOnError)
	fs.StringVar(&flags.Config, "config", "", "path to a config file (default: probe molgen.yml in the working directory)")
	fs.IntVar(&flags.Molecules, "molecules", -1, "number of molecules to generate")
	fs.IntVar(&flags.Parallel, "parallel", -1, "total number of cores to use")
	fs.IntVar(&flags.Verbosity, "verbosity", -1, "output verbosity (0, 1, or 2)")
	fs.BoolVar(&flags.PrintConfig, "print-config", false, "print the effective configuration and exit")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := loadConfig(flags.Config)
	if err != nil {
		return err
	}
	if flags.Molecules >= 0 {
		cfg.General.NumMolecules = flags.Molecules
	}
	if flags.Parallel >= 0 {
		cfg.General.Parallel = flags.Parallel
	}
	if flags.Verbosity >= 0 {
		cfg.General.Verbosity = flags.Verbosity
	}

	if flags.PrintConfig || cfg.General.PrintConfig {
		fmt.Print(cfg)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if max := runtime.NumCPU(); cfg.General.Parallel > max {
		log.Printf("WARNING: %d cores requested but only %d available, using %d",
			cfg.General.Parallel, max, max)
		cfg.General.Parallel = max
	}

	refineKind, err := engine.ParseKind(cfg.Refine.Engine)
	if err != nil {
		return err
	}
	refineEng, err := engine.Resolve(refineKind, cfg)
	if err != nil {
		return fmt.Errorf("refinement engine %s: %w", refineKind, err)
	}

	var postEng engine.Engine
	if cfg.General.Postprocess {
		postKind, err := engine.ParseKind(cfg.Postprocess.Engine)
		if err != nil {
			return err
		}
		postEng, err = engine.Resolve(postKind, cfg)
		if err != nil {
			return fmt.Errorf("postprocessing engine %s: %w", postKind, err)
		}
	}

	if cfg.General.Verbosity > 0 && cfg.General.WriteXYZ {
		fmt.Printf("Appending generated structures to %s.\n", manifestFile)
	}

	gen := generator.New(cfg, generator.NewPipeline(cfg, refineEng, postEng))
	results := gen.Run(context.Background())

	produced := 0
	for i, mol := range results {
		if mol == nil {
			log.Printf("WARNING: molecule %d could not be generated", i+1)
			continue
		}
		produced++
		if cfg.General.WriteXYZ {
			if err := writeResult(mol); err != nil {
				return err
			}
		}
	}

	total := cfg.General.NumMolecules
	if cfg.General.Verbosity > 0 {
		fmt.Printf("%d of %d molecules generated successfully.\n", produced, total)
	}
	if produced < total {
		return fmt.Errorf("%d of %d molecules failed", total-produced, total)
	}
	return nil
}

// loadConfig resolves an explicit -config path or probes the working
// directory for a config file, falling back to the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

// writeResult writes one structure to disk and records it in the manifest.
func writeResult(mol *molecule.Molecule) error {
	name := "mlm_" + mol.Name
	if err := mol.WriteXYZFile(name + ".xyz"); err != nil {
		return err
	}

	f, err := os.OpenFile(manifestFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, name); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}
