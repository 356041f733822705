package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Engine names accepted in the refine and postprocess sections.
const (
	EngineXTB  = "xtb"
	EngineORCA = "orca"
	EngineGXTB = "gxtb"
)

// Config holds all settings for a generation run. It is read-only for the
// scheduler; verbosity adjustments during parallel phases are threaded
// through call arguments instead of mutating this struct.
type Config struct {
	General     GeneralConfig     `yaml:"general"`
	Generate    GenerateConfig    `yaml:"generate"`
	Refine      RefineConfig      `yaml:"refine"`
	Postprocess PostprocessConfig `yaml:"postprocess"`
	XTB         BinaryConfig      `yaml:"xtb"`
	ORCA        BinaryConfig      `yaml:"orca"`
	GXTB        BinaryConfig      `yaml:"gxtb"`
}

// GeneralConfig covers run-wide settings.
type GeneralConfig struct {
	// Verbosity is 0 (quiet), 1 (normal), or 2 (debug output).
	Verbosity int `yaml:"verbosity"`

	// Parallel is the core budget shared by all molecule tasks. It is
	// clamped to the machine's CPU count at startup.
	Parallel int `yaml:"parallel"`

	// NumMolecules is how many molecules to produce.
	NumMolecules int `yaml:"numMolecules"`

	// MaxCycles bounds the concurrent generation attempts per molecule.
	MaxCycles int `yaml:"maxCycles"`

	// MinCores is the per-slot core floor used by the block planner.
	MinCores int `yaml:"minCores"`

	// WriteXYZ controls whether successful molecules are written to disk
	// and recorded in the session manifest.
	WriteXYZ bool `yaml:"writeXYZ"`

	// Postprocess enables the optional postprocessing stage.
	Postprocess bool `yaml:"postprocess"`

	// PrintConfig dumps the effective configuration and exits.
	PrintConfig bool `yaml:"printConfig"`
}

// GenerateConfig covers random structure generation.
type GenerateConfig struct {
	MinNumAtoms int `yaml:"minNumAtoms"`
	MaxNumAtoms int `yaml:"maxNumAtoms"`

	// InitCoordScaling scales the edge of the random placement box.
	InitCoordScaling float64 `yaml:"initCoordScaling"`

	// MinDistanceFactor scales the covalent-radii sum used as the minimum
	// allowed interatomic distance.
	MinDistanceFactor float64 `yaml:"minDistanceFactor"`

	// MaxTries bounds the random placement attempts per generation call.
	MaxTries int `yaml:"maxTries"`

	// ForbiddenElements lists element symbols excluded from composition.
	ForbiddenElements []string `yaml:"forbiddenElements"`

	// Debug produces one diagnostic structure and aborts the whole run.
	Debug bool `yaml:"debug"`
}

// RefineConfig covers the iterative optimization stage.
type RefineConfig struct {
	Engine         string  `yaml:"engine"`
	MaxFragCycles  int     `yaml:"maxFragCycles"`
	HLGapThreshold float64 `yaml:"hlgapThreshold"`

	// Debug forces single-shot behavior: after the first attempt finishes
	// refinement, sibling attempts are canceled regardless of outcome.
	Debug bool `yaml:"debug"`
}

// PostprocessConfig covers the optional postprocessing stage.
type PostprocessConfig struct {
	Engine   string `yaml:"engine"`
	Optimize bool   `yaml:"optimize"`
	Debug    bool   `yaml:"debug"`
}

// BinaryConfig points at an external engine binary. An empty path means
// the binary is located via PATH lookup of its default names.
type BinaryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no file or flag overrides it.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			Verbosity:    1,
			Parallel:     1,
			NumMolecules: 1,
			MaxCycles:    100,
			MinCores:     4,
			WriteXYZ:     true,
		},
		Generate: GenerateConfig{
			MinNumAtoms:       5,
			MaxNumAtoms:       10,
			InitCoordScaling:  3.0,
			MinDistanceFactor: 0.8,
			MaxTries:          50,
		},
		Refine: RefineConfig{
			Engine:         EngineXTB,
			MaxFragCycles:  10,
			HLGapThreshold: 0.5,
		},
		Postprocess: PostprocessConfig{
			Engine:   EngineORCA,
			Optimize: true,
		},
	}
}

// Load reads molgen.yml or molgen.yaml from dir, overlaying the defaults.
// A missing file is not an error; the defaults are returned unchanged.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"molgen.yml", "molgen.yaml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	return Default(), nil
}

// LoadFile reads a specific config file, overlaying the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration before any task is scheduled. Errors
// here are fatal; nothing runs after a validation failure.
func (c *Config) Validate() error {
	g := c.General
	if g.Parallel < 1 {
		return fmt.Errorf("config: parallel core budget must be at least 1, got %d", g.Parallel)
	}
	if g.NumMolecules < 0 {
		return fmt.Errorf("config: number of molecules must not be negative, got %d", g.NumMolecules)
	}
	if g.MaxCycles < 1 {
		return fmt.Errorf("config: max cycles must be at least 1, got %d", g.MaxCycles)
	}
	if g.MinCores < 1 {
		return fmt.Errorf("config: per-slot core floor must be at least 1, got %d", g.MinCores)
	}
	if g.Verbosity < 0 || g.Verbosity > 2 {
		return fmt.Errorf("config: verbosity must be 0, 1, or 2, got %d", g.Verbosity)
	}

	gen := c.Generate
	if gen.MinNumAtoms < 1 {
		return fmt.Errorf("config: minimum atom count must be at least 1, got %d", gen.MinNumAtoms)
	}
	if gen.MaxNumAtoms < gen.MinNumAtoms {
		return fmt.Errorf("config: maximum atom count %d is below the minimum %d", gen.MaxNumAtoms, gen.MinNumAtoms)
	}
	if gen.InitCoordScaling <= 0 {
		return fmt.Errorf("config: coordinate scaling must be positive, got %g", gen.InitCoordScaling)
	}
	if gen.MinDistanceFactor <= 0 {
		return fmt.Errorf("config: minimum distance factor must be positive, got %g", gen.MinDistanceFactor)
	}
	if gen.MaxTries < 1 {
		return fmt.Errorf("config: generation tries must be at least 1, got %d", gen.MaxTries)
	}

	switch c.Refine.Engine {
	case EngineXTB, EngineORCA:
	case EngineGXTB:
		return fmt.Errorf("config: %s cannot drive refinement (single-point only)", EngineGXTB)
	default:
		return fmt.Errorf("config: unknown refinement engine %q", c.Refine.Engine)
	}
	if c.Refine.MaxFragCycles < 1 {
		return fmt.Errorf("config: fragment cycles must be at least 1, got %d", c.Refine.MaxFragCycles)
	}
	if c.Refine.HLGapThreshold < 0 {
		return fmt.Errorf("config: HOMO-LUMO gap threshold must not be negative, got %g", c.Refine.HLGapThreshold)
	}

	if g.Postprocess {
		switch c.Postprocess.Engine {
		case EngineXTB, EngineORCA, EngineGXTB:
		default:
			return fmt.Errorf("config: unknown postprocessing engine %q", c.Postprocess.Engine)
		}
		if c.Postprocess.Engine == EngineGXTB && c.Postprocess.Optimize {
			return fmt.Errorf("config: %s cannot optimize geometries during postprocessing", EngineGXTB)
		}
	}

	return nil
}

// String renders the effective configuration as yaml for -print-config.
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(out)
}
