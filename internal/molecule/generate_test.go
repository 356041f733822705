package molecule

import (
	"testing"

	"github.com/kohnsham/molgen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateConfig() *config.GenerateConfig {
	cfg := config.Default().Generate
	// A generous box makes the distance check pass quickly in tests.
	cfg.InitCoordScaling = 10.0
	return &cfg
}

func TestGenerateRandom_RespectsAtomBounds(t *testing.T) {
	cfg := generateConfig()
	cfg.MinNumAtoms = 4
	cfg.MaxNumAtoms = 7

	for i := 0; i < 10; i++ {
		m, err := GenerateRandom(cfg, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m.NumAtoms(), 4)
		assert.LessOrEqual(t, m.NumAtoms(), 7)
		assert.NotEmpty(t, m.Name)
	}
}

func TestGenerateRandom_RespectsMinimumDistances(t *testing.T) {
	cfg := generateConfig()

	m, err := GenerateRandom(cfg, 0)
	require.NoError(t, err)

	for i := 0; i < m.NumAtoms(); i++ {
		for j := i + 1; j < m.NumAtoms(); j++ {
			floor := cfg.MinDistanceFactor * (CovalentRadius(m.Ati[i]) + CovalentRadius(m.Ati[j]))
			assert.GreaterOrEqual(t, m.Distance(i, j), floor,
				"atoms %d and %d closer than the covalent floor", i, j)
		}
	}
}

func TestGenerateRandom_ForbiddenElementsExcluded(t *testing.T) {
	cfg := generateConfig()
	cfg.ForbiddenElements = []string{"H", "He", "C"}

	for i := 0; i < 5; i++ {
		m, err := GenerateRandom(cfg, 0)
		require.NoError(t, err)
		for _, z := range m.Ati {
			assert.NotContains(t, []int{1, 2, 6}, z)
		}
	}
}

func TestGenerateRandom_UnknownForbiddenElement(t *testing.T) {
	cfg := generateConfig()
	cfg.ForbiddenElements = []string{"Quux"}

	_, err := GenerateRandom(cfg, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Quux")
}

func TestGenerateRandom_ExhaustsTries(t *testing.T) {
	cfg := generateConfig()
	// A box far too small for the distance check to ever pass.
	cfg.InitCoordScaling = 0.01
	cfg.MinNumAtoms = 8
	cfg.MaxNumAtoms = 8
	cfg.MaxTries = 3

	_, err := GenerateRandom(cfg, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAbortRun)
}

func TestGenerateRandom_DebugAbortsRun(t *testing.T) {
	cfg := generateConfig()
	cfg.Debug = true

	_, err := GenerateRandom(cfg, 0)
	require.ErrorIs(t, err, ErrAbortRun)
}
