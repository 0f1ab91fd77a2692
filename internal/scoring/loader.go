package scoring

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// profileFile is the YAML layout of a custom profile.
// Fields left out keep the value of the preset named by extends.
type profileFile struct {
	Extends string `yaml:"extends"`
	Profile `yaml:",inline"`
}

// LoadProfile reads a YAML profile file.
// Unknown fields are rejected so typos fail loudly.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile document
func ParseProfile(data []byte) (*Profile, error) {
	var head struct {
		Extends string `yaml:"extends"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if head.Extends == "" {
		head.Extends = DefaultProfile
	}

	base, err := Preset(head.Extends)
	if err != nil {
		return nil, err
	}

	file := profileFile{Extends: head.Extends, Profile: base}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	p := file.Profile
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Resolve returns a preset by name or, when path is set, the profile file at path
func Resolve(name, path string) (*Profile, error) {
	if path != "" {
		return LoadProfile(path)
	}
	if name == "" {
		name = DefaultProfile
	}
	p, err := Preset(name)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
