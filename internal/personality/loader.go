package personality

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"hermes/pkg/errors"
)

// LoadScenario reads a scenario file, dispatching on extension: .json is
// parsed as JSON, .yaml/.yml as YAML.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrScenarioNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "read scenario %s", path)
	}

	var scenario Scenario
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &scenario); err != nil {
			return nil, errors.Wrapf(errors.ErrMalformedScenario, "%s: %v", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &scenario); err != nil {
			return nil, errors.Wrapf(errors.ErrMalformedScenario, "%s: %v", path, err)
		}
	default:
		return nil, errors.Wrapf(errors.ErrMalformedScenario, "%s: unsupported extension", path)
	}

	// Resolve early so a broken file fails at load, not mid-simulation.
	if _, err := scenario.EngineConfig(); err != nil {
		return nil, err
	}
	return &scenario, nil
}
