package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	Chat struct {
		System string `yaml:"system"`
	} `yaml:"chat"`
	Summary struct {
		System string `yaml:"system"`
		User   string `yaml:"user"`
	} `yaml:"summary"`
}

// Load returns the embedded prompts, overlaid with any non-empty fields from
// the YAML file at path. An empty path means defaults only.
func Load(path string) (*Prompts, error) {
	p := &Prompts{}
	if err := yaml.Unmarshal(defaultPrompts, p); err != nil {
		return nil, fmt.Errorf("parse embedded prompts: %w", err)
	}
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	if override.Chat.System != "" {
		p.Chat.System = override.Chat.System
	}
	if override.Summary.System != "" {
		p.Summary.System = override.Summary.System
	}
	if override.Summary.User != "" {
		p.Summary.User = override.Summary.User
	}
	return p, nil
}

// SummaryUser renders the summary user prompt for an article.
func (p *Prompts) SummaryUser(title, content string) string {
	return strings.NewReplacer("{{title}}", title, "{{content}}", content).Replace(p.Summary.User)
}
