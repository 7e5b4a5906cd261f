package process

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ToolConfig describes one allow-listed local command exposed as a tool.
type ToolConfig struct {
	// Name is the tool name the model calls.
	Name string `yaml:"name"`

	// Description tells the model what the tool does.
	Description string `yaml:"description"`

	// Command and Args are the executable to run. Tool arguments are NOT
	// spliced into the command line; they arrive as environment variables.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// Environment is extra static environment for the command.
	Environment map[string]string `yaml:"environment"`

	// Schema is the JSON schema of the tool arguments. When empty the tool
	// accepts any object.
	Schema map[string]any `yaml:"schema"`
}

func (c ToolConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("process tool missing name")
	}
	if c.Command == "" {
		return fmt.Errorf("process tool %q missing command", c.Name)
	}
	return nil
}

// LoadTools reads tool definitions from a YAML file.
func LoadTools(path string) ([]ToolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file %s: %w", path, err)
	}

	var file struct {
		Tools []ToolConfig `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tools file %s: %w", path, err)
	}
	if len(file.Tools) == 0 {
		return nil, fmt.Errorf("tools file %s declares no tools", path)
	}
	return file.Tools, nil
}
