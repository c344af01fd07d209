package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"triage/internal/element"
	"triage/internal/faults"
	"triage/internal/module"
)

// stageSpec is one stage entry in a run file. Name is the stage's identifier
// in storage; Module picks the registered component and defaults to Name.
type stageSpec struct {
	Name       string         `yaml:"name"`
	Module     string         `yaml:"module"`
	Config     map[string]any `yaml:"config"`
	ElementsIn []string       `yaml:"elements_in"`
}

func (s stageSpec) moduleName() string {
	if strings.TrimSpace(s.Module) != "" {
		return s.Module
	}
	return s.Name
}

func (s stageSpec) stageConfig() module.StageConfig {
	cfg := module.StageConfig{Options: s.Config}
	for _, q := range s.ElementsIn {
		cfg.ElementsIn = append(cfg.ElementsIn, element.Query(q))
	}
	return cfg
}

// runFile is the YAML pipeline description: an optional select stage followed
// by zero or more analyse stages executed in order.
type runFile struct {
	Select  *stageSpec  `yaml:"select"`
	Analyse []stageSpec `yaml:"analyse"`
}

func loadRunFile(path string) (*runFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}

	var rf runFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse run file %s: %w", path, err)
	}

	if rf.Select == nil && len(rf.Analyse) == 0 {
		return nil, faults.Configf("the run file names no stages")
	}
	if rf.Select != nil && strings.TrimSpace(rf.Select.Name) == "" {
		return nil, faults.Configf("the select stage requires a name")
	}
	for i, stage := range rf.Analyse {
		if strings.TrimSpace(stage.Name) == "" {
			return nil, faults.Configf("analyse stage %d requires a name", i+1)
		}
	}
	if rf.Select == nil && len(rf.Analyse[0].ElementsIn) == 0 {
		return nil, faults.Configf("the first analyse stage requires 'elements_in' when no select stage runs")
	}
	return &rf, nil
}
