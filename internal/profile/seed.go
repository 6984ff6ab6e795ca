package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSeedFile reads a YAML map of user id to viewpoint, used to populate a
// MemoryStore for local runs:
//
//	u1:
//	  worldview: ...
//	  lifePhilosophy: ...
//	  values: ...
func LoadSeedFile(path string) (map[string]Viewpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile seed: %w", err)
	}
	var raw map[string]struct {
		Worldview      string `yaml:"worldview"`
		LifePhilosophy string `yaml:"lifePhilosophy"`
		Values         string `yaml:"values"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse profile seed: %w", err)
	}
	out := make(map[string]Viewpoint, len(raw))
	for id, v := range raw {
		out[id] = Viewpoint{Worldview: v.Worldview, LifePhilosophy: v.LifePhilosophy, Values: v.Values}
	}
	return out, nil
}
