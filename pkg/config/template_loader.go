package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// SupportedTemplateVersions is the semver constraint a template's version
// field must satisfy before the engine will use it.
const SupportedTemplateVersions = ">=1.0.0 <2.0.0"

const templateSchemaURL = "https://accordo.schemas.local/negotiation-template.schema.json"

// templateSchema is the structural contract for negotiation template files.
// Semantic checks (threshold ordering, weight bounds per utility type) live
// in Validate.
const templateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "thresholds", "parameters"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "currency": {"type": "string", "pattern": "^[A-Z]{3}$"},
    "priority": {"enum": ["price", "delivery", "terms"]},
    "max_rounds": {"type": "integer", "minimum": 1},
    "hard_max_rounds": {"type": "integer", "minimum": 1},
    "thresholds": {
      "type": "object",
      "required": ["accept", "escalate", "walkaway"],
      "properties": {
        "accept": {"type": "number", "minimum": 0, "maximum": 1},
        "escalate": {"type": "number", "minimum": 0, "maximum": 1},
        "walkaway": {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "parameters": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "weight", "utility", "direction"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "weight": {"type": "number", "minimum": 0, "maximum": 100},
          "utility": {"enum": ["linear", "binary", "stepped", "date", "percentage", "boolean"]},
          "direction": {"enum": ["lower_better", "higher_better", "match_target", "closer_better"]},
          "target": {"type": "number"},
          "target_date": {"type": "string", "format": "date"},
          "min": {"type": "number"},
          "max": {"type": "number"},
          "max_distance_days": {"type": "integer", "minimum": 1},
          "options": {"type": "array", "items": {"type": "string"}},
          "option_utilities": {"type": "object", "additionalProperties": {"type": "number"}},
          "mandatory": {"type": "boolean"}
        }
      }
    }
  }
}`

// Template is the on-disk YAML shape of a negotiation profile. Loading a
// template snapshots it into a contracts.NegotiationConfig; later edits to
// the file never affect deals already in flight.
type Template struct {
	Version       string              `yaml:"version"`
	Name          string              `yaml:"name"`
	Currency      string              `yaml:"currency"`
	Priority      string              `yaml:"priority"`
	MaxRounds     int                 `yaml:"max_rounds"`
	HardMaxRounds int                 `yaml:"hard_max_rounds"`
	Thresholds    TemplateThresholds  `yaml:"thresholds"`
	Parameters    []TemplateParameter `yaml:"parameters"`
}

// TemplateThresholds holds the decision thresholds as fractions of 1.0.
type TemplateThresholds struct {
	Accept   float64 `yaml:"accept"`
	Escalate float64 `yaml:"escalate"`
	Walkaway float64 `yaml:"walkaway"`
}

// TemplateParameter is one negotiable attribute as declared in YAML.
type TemplateParameter struct {
	ID              string             `yaml:"id"`
	Name            string             `yaml:"name"`
	Weight          float64            `yaml:"weight"`
	Utility         string             `yaml:"utility"`
	Direction       string             `yaml:"direction"`
	Target          float64            `yaml:"target"`
	TargetDate      string             `yaml:"target_date"`
	Min             *float64           `yaml:"min"`
	Max             *float64           `yaml:"max"`
	MaxDistanceDays int                `yaml:"max_distance_days"`
	Options         []string           `yaml:"options"`
	OptionUtilities map[string]float64 `yaml:"option_utilities"`
	Mandatory       bool               `yaml:"mandatory"`
}

var compiledTemplateSchema = mustCompileTemplateSchema()

func mustCompileTemplateSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(templateSchemaURL, strings.NewReader(templateSchema)); err != nil {
		panic(fmt.Sprintf("template schema load failed: %v", err))
	}
	return c.MustCompile(templateSchemaURL)
}

// LoadTemplate loads a negotiation template YAML by name from templatesDir.
// It searches for <name>.yaml.
func LoadTemplate(templatesDir, name string) (*contracts.NegotiationConfig, error) {
	path := filepath.Join(templatesDir, fmt.Sprintf("%s.yaml", strings.ToLower(name)))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load template %q: %w", name, err)
	}
	return ParseTemplate(data)
}

// ParseTemplate validates and converts raw template YAML into a frozen
// negotiation config. Structural errors, unsupported versions and semantic
// violations all fail here, before any deal can reference the template.
func ParseTemplate(data []byte) (*contracts.NegotiationConfig, error) {
	// Schema validation runs against the generic YAML document so unknown
	// fields and type mismatches surface with schema paths, not zero values.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if err := compiledTemplateSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	if err := checkTemplateVersion(tpl.Version); err != nil {
		return nil, err
	}

	cfg, err := tpl.ToConfig()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkTemplateVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: template version %q: %v", ErrInvalidConfig, version, err)
	}
	constraint, err := semver.NewConstraint(SupportedTemplateVersions)
	if err != nil {
		return fmt.Errorf("invalid version constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: template version %s outside supported range %s",
			ErrInvalidConfig, version, SupportedTemplateVersions)
	}
	return nil
}

// ToConfig converts the YAML shape into the engine's frozen config.
func (t *Template) ToConfig() (*contracts.NegotiationConfig, error) {
	cfg := &contracts.NegotiationConfig{
		AcceptThreshold:   t.Thresholds.Accept,
		EscalateThreshold: t.Thresholds.Escalate,
		WalkawayThreshold: t.Thresholds.Walkaway,
		MaxRounds:         t.MaxRounds,
		HardMaxRounds:     t.HardMaxRounds,
		Priority:          t.Priority,
		Currency:          t.Currency,
	}
	if cfg.MaxRounds == 0 {
		cfg.MaxRounds = 10
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}

	for _, p := range t.Parameters {
		pc := contracts.ParameterConfig{
			ID:              p.ID,
			Name:            p.Name,
			Weight:          p.Weight,
			UtilityType:     contracts.UtilityType(p.Utility),
			Direction:       contracts.Direction(p.Direction),
			Target:          p.Target,
			Min:             p.Min,
			Max:             p.Max,
			MaxDistanceDays: p.MaxDistanceDays,
			Options:         p.Options,
			OptionUtilities: p.OptionUtilities,
			Mandatory:       p.Mandatory,
		}
		if pc.Name == "" {
			pc.Name = p.ID
		}
		if p.TargetDate != "" {
			d, err := time.Parse("2006-01-02", p.TargetDate)
			if err != nil {
				return nil, fmt.Errorf("%w: parameter %s target_date: %v", ErrInvalidConfig, p.ID, err)
			}
			pc.TargetDate = &d
		}
		cfg.Parameters = append(cfg.Parameters, pc)
	}
	return cfg, nil
}
