package rule

import (
	"fmt"
	"os"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// Load parses a YAML list of rules and compiles each one in a fresh environment
// from envProvider. An empty document yields no rules.
func Load(content []byte, envProvider func() (*cel.Env, error)) ([]Rule, error) {
	rules := []Rule{}
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	for i := range rules {
		env, err := envProvider()
		if err != nil {
			return nil, err
		}
		if err := rules[i].Init(env); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return rules, nil
}

// LoadFromFile reads and loads the rules stored in file.
func LoadFromFile(file string, envProvider func() (*cel.Env, error)) ([]Rule, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Load(content, envProvider)
}
