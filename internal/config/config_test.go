package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, Default().Scoring.Weights.Sum(), weightSumTolerance)
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
scoring:
  categories:
    strong_buy: 80
risk:
  max_positions: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 80.0, cfg.Scoring.Categories.StrongBuy)
	assert.Equal(t, 5, cfg.Risk.MaxPositions)

	// Untouched sections keep their defaults.
	assert.Equal(t, 65.0, cfg.Scoring.Categories.Buy)
	assert.Equal(t, 14, cfg.Features.RSIPeriod)
	assert.Equal(t, 0.02, cfg.Risk.RiskFraction)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "scoring: [not, a, mapping")
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("SENTIMENT_API_KEY", "sk-from-env")
	t.Setenv("SENTIMENT_BACKEND", "ai")

	path := writeConfig(t, `
sentiment:
  backend: keyword
  ai:
    endpoint: https://api.example.com/v1/score
    api_key: sk-from-file
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ai", cfg.Sentiment.Backend)
	assert.Equal(t, "sk-from-env", cfg.Sentiment.AI.APIKey)
}

func TestValidateRejectsBadWeightSum(t *testing.T) {
	cfg := Default()
	cfg.Scoring.Weights.Technical = 0.50

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestValidateRejectsUnorderedCategories(t *testing.T) {
	cfg := Default()
	cfg.Scoring.Categories.Buy = 90 // above strong_buy

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Sentiment.Backend = "oracle"

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestValidateRequiresEndpointForAIBackend(t *testing.T) {
	cfg := Default()
	cfg.Sentiment.Backend = "ai"
	cfg.Sentiment.AI.Endpoint = ""

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestValidateRiskBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero risk fraction", func(c *Config) { c.Risk.RiskFraction = 0 }},
		{"risk fraction above one", func(c *Config) { c.Risk.RiskFraction = 1.5 }},
		{"zero position fraction", func(c *Config) { c.Risk.MaxPositionFraction = 0 }},
		{"zero max positions", func(c *Config) { c.Risk.MaxPositions = 0 }},
		{"negative entry threshold", func(c *Config) { c.Risk.EntryThreshold = -1 }},
		{"zero reward ratio", func(c *Config) { c.Risk.RewardRatio = 0 }},
		{"zero holding days", func(c *Config) { c.Risk.MaxHoldingDays = 0 }},
		{"trailing without distance", func(c *Config) { c.Risk.TrailRiskMultiple = 0 }},
		{"zero start balance", func(c *Config) { c.Risk.StartBalance = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidateRejectsPenaltyAboveOne(t *testing.T) {
	cfg := Default()
	cfg.Scoring.FallingKnife.Multiplier = 1.2

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestValidateRejectsBonusBelowOne(t *testing.T) {
	cfg := Default()
	cfg.Scoring.FreshCatalyst.Multiplier = 0.9

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestValidateDisabledAdjustmentSkipsMultiplierCheck(t *testing.T) {
	cfg := Default()
	cfg.Scoring.FallingKnife = Adjustment{Enabled: false, Multiplier: 0}

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsDuplicateInstruments(t *testing.T) {
	cfg := Default()
	cfg.Scan.Instruments = []string{"NVDA", "NVDA"}

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestValidateRejectsUnorderedATRBoundaries(t *testing.T) {
	cfg := Default()
	cfg.Scoring.ATRGoodMax = cfg.Scoring.ATRWideMax + 1

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestMinRequiredCoversLongestWindow(t *testing.T) {
	f := Default().Features
	// The 50-period slow EMA is the longest window; margin adds 5.
	assert.Equal(t, 55, f.MinRequired())

	f.EMASlowPeriod = 120
	assert.Equal(t, 125, f.MinRequired())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
