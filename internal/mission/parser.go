package mission

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/straylight-ai/wintermute/internal/types"
)

// ParseDefinition loads a mission definition from a YAML or JSON file.
// The format is chosen by file extension: .json is parsed as JSON,
// everything else as YAML.
func ParseDefinition(path string) (*Mission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.MISSION_PARSE_FAILED,
			fmt.Sprintf("failed to read mission file %s", path), err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parseJSON(data)
	}
	return ParseDefinitionBytes(data)
}

// ParseDefinitionBytes parses a mission definition from raw YAML bytes.
func ParseDefinitionBytes(data []byte) (*Mission, error) {
	var m Mission
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, types.WrapError(types.MISSION_PARSE_FAILED,
			"failed to parse mission YAML", err)
	}
	normalize(&m)
	return &m, nil
}

func parseJSON(data []byte) (*Mission, error) {
	var m Mission
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, types.WrapError(types.MISSION_PARSE_FAILED,
			"failed to parse mission JSON", err)
	}
	normalize(&m)
	return &m, nil
}

// normalize applies defaults that the wire format leaves implicit.
func normalize(m *Mission) {
	if m.Version == "" {
		m.Version = "1.0"
	}
	for i := range m.Steps {
		if m.Steps[i].Type == "" {
			m.Steps[i].Type = StepTypeNoop
		}
		if m.Steps[i].Name == "" {
			m.Steps[i].Name = m.Steps[i].ID
		}
	}
}
