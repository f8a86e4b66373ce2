package personality

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/negotiation"
	"hermes/pkg/errors"
)

func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const jsonScenario = `{
  "name": "spice-lot",
  "product": {"name": "saffron", "category": "spice", "quantity": 5, "base_market_price": 450},
  "max_rounds": 10,
  "buyer": {
    "style": "balanced",
    "opening_offer": 200,
    "reservation_threshold": 420,
    "concession_rate": 0.15,
    "patience_sensitivity": 0.5
  },
  "seller": {
    "style": "aggressive",
    "opening_offer": 500,
    "reservation_threshold": 400,
    "concession_rate": 0.15,
    "patience_sensitivity": 0.5
  }
}`

const yamlScenario = `name: spice-lot
product:
  name: saffron
  category: spice
  quantity: 5
  base_market_price: 450
max_rounds: 10
buyer:
  style: balanced
  opening_multiplier: 0.5
  reservation_threshold: 420
  concession_rate: 0.15
  patience_sensitivity: 0.5
seller:
  style: defensive
  opening_multiplier: 1.2
  reservation_threshold: 400
  concession_rate: 0.15
  patience_sensitivity: 0.5
`

func TestLoadScenario_JSON(t *testing.T) {
	path := writeScenario(t, "scenario.json", jsonScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "spice-lot", scenario.Name)
	assert.Equal(t, "saffron", scenario.Product.Name)

	cfg, err := scenario.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, negotiation.StyleAggressive, cfg.Seller.Style)
	assert.True(t, cfg.Buyer.OpeningOffer.Equal(decimal.NewFromInt(200)))
}

func TestLoadScenario_YAMLDerivesOpenings(t *testing.T) {
	path := writeScenario(t, "scenario.yaml", yamlScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	cfg, err := scenario.EngineConfig()
	require.NoError(t, err)

	// Openings derive from base market price 450: buyer 0.5x, seller 1.2x.
	assert.True(t, cfg.Buyer.OpeningOffer.Equal(decimal.NewFromInt(225)),
		"got %s", cfg.Buyer.OpeningOffer)
	assert.True(t, cfg.Seller.OpeningOffer.Equal(decimal.NewFromInt(540)),
		"got %s", cfg.Seller.OpeningOffer)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrScenarioNotFound))
}

func TestLoadScenario_MalformedJSON(t *testing.T) {
	path := writeScenario(t, "broken.json", `{"name": `)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedScenario))
}

func TestLoadScenario_UnsupportedExtension(t *testing.T) {
	path := writeScenario(t, "scenario.toml", "name = 'x'")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedScenario))
}

func TestLoadScenario_UnknownStyleRejected(t *testing.T) {
	content := `{
  "name": "bad",
  "product": {"name": "x", "base_market_price": 100},
  "max_rounds": 5,
  "buyer": {"style": "ruthless", "opening_offer": 50, "reservation_threshold": 90, "concession_rate": 0.2, "patience_sensitivity": 0.5},
  "seller": {"style": "balanced", "opening_offer": 120, "reservation_threshold": 95, "concession_rate": 0.2, "patience_sensitivity": 0.5}
}`
	path := writeScenario(t, "bad.json", content)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownStyle))
}

func TestScenario_OpeningUnderivableRejected(t *testing.T) {
	scenario := Default()
	scenario.Buyer.OpeningOffer = 0
	scenario.Buyer.OpeningMultiplier = 0
	scenario.Product.BaseMarketPrice = 0

	_, err := scenario.EngineConfig()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestScenario_DefaultIsRunnable(t *testing.T) {
	cfg, err := Default().EngineConfig()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.MaxRounds)
	assert.Equal(t, negotiation.RoleBuyer, cfg.Buyer.Role)
	assert.Equal(t, negotiation.RoleSeller, cfg.Seller.Role)
}
