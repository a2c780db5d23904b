package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dynoinc/incidentreport/internal/report"
)

// KeyFileName is the file in the home directory holding the PagerDuty API key.
const KeyFileName = ".pd"

type Confluence struct {
	SpaceKey string `yaml:"space_key"`
	Title    string `yaml:"title"`
}

type Slack struct {
	ChannelID string `yaml:"channel_id"`
}

// Profile is a saved set of report options. Unset fields leave the
// command line defaults alone.
type Profile struct {
	Teams      []string    `yaml:"teams"      validate:"dive,required"`
	Services   []string    `yaml:"services"   validate:"dive,required"`
	Format     string      `yaml:"format"     validate:"omitempty,oneof=pretty csv confluence slack"`
	Group      string      `yaml:"group"`
	Fuzzy      bool        `yaml:"fuzzy"`
	FuzzScore  *int        `yaml:"fuzz_score" validate:"omitempty,gte=0,lte=100"`
	Full       bool        `yaml:"full"`
	Report     bool        `yaml:"report"`
	Confluence *Confluence `yaml:"confluence,omitempty"`
	Slack      *Slack      `yaml:"slack,omitempty"`
}

// Threshold returns the configured fuzzy threshold or the default.
func (p Profile) Threshold() int {
	if p.FuzzScore == nil {
		return report.DefaultThreshold
	}
	return *p.FuzzScore
}

func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}

	if err := validator.New().Struct(p); err != nil {
		return nil, fmt.Errorf("validating profile: %w", err)
	}

	return &p, nil
}

// ReadKeyFile returns the API key stored in dir/.pd, or "" if there is no such file.
func ReadKeyFile(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, KeyFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SplitList splits a comma separated list of ids, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
