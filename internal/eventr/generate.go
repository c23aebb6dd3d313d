package eventr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
	"gopkg.in/yaml.v3"

	"github.com/pp-cti/policr/internal/policr/event"
	"github.com/pp-cti/policr/internal/policr/logger"
)

// Config describes a batch of synthetic events, parsed from YAML.
type Config struct {
	Output     string `yaml:"output"`
	Prefix     string `yaml:"prefix"`
	Seed       int64  `yaml:"seed"`
	Events     int    `yaml:"events"`
	Mode       string `yaml:"mode"`       // attributes | objects
	Attributes int    `yaml:"attributes"` // per flat event
	Objects    int    `yaml:"objects"`    // per nested event
}

// ReadConfig parses the YAML generator config and applies defaults.
func ReadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	cfg.applyDefaults()
	return cfg, cfg.validate()
}

func (c *Config) applyDefaults() {
	if c.Output == "" {
		c.Output = "."
	}
	if c.Prefix == "" {
		c.Prefix = "event"
	}
	if c.Events == 0 {
		c.Events = 1
	}
	if c.Mode == "" {
		c.Mode = string(event.ModeFlat)
	}
	if c.Attributes == 0 {
		c.Attributes = 8
	}
	if c.Objects == 0 {
		c.Objects = 3
	}
}

func (c Config) validate() error {
	switch event.Mode(c.Mode) {
	case event.ModeFlat, event.ModeNested:
	default:
		return fmt.Errorf("unsupported mode %q (want %s or %s)", c.Mode, event.ModeFlat, event.ModeNested)
	}
	if c.Events < 0 || c.Attributes < 0 || c.Objects < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	return nil
}

// Attribute is a MISP attribute with its value.
type Attribute struct {
	UUID           string `json:"uuid"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	ObjectRelation string `json:"object_relation"`
	Value          string `json:"value"`
}

type Object struct {
	UUID      string      `json:"uuid"`
	Name      string      `json:"name"`
	Attribute []Attribute `json:"Attribute"`
}

type Body struct {
	UUID      string       `json:"uuid"`
	Info      string       `json:"info"`
	Date      string       `json:"date"`
	Timestamp string       `json:"timestamp"`
	Attribute *[]Attribute `json:"Attribute,omitempty"`
	Object    *[]Object    `json:"Object,omitempty"`
}

// Capture is one generated event file.
type Capture struct {
	Event Body `json:"Event"`
}

func newAttribute(name string) Attribute {
	r := relations[name]
	return Attribute{
		UUID:           gofakeit.UUID(),
		Type:           r.Type,
		Category:       r.Category,
		ObjectRelation: r.Name,
		Value:          r.Value(),
	}
}

// NewEvent builds one event. Flat events repeat relations once the catalog
// is exhausted, so the loader's dedup is exercised.
func NewEvent(cfg Config) Capture {
	ts := gofakeit.Date()
	body := Body{
		UUID:      gofakeit.UUID(),
		Info:      fmt.Sprintf("synthetic %s %s capture", gofakeit.Word(), gofakeit.Word()),
		Date:      ts.Format("2006-01-02"),
		Timestamp: strconv.FormatInt(ts.Unix(), 10),
	}

	if event.Mode(cfg.Mode) == event.ModeNested {
		objs := make([]Object, 0, cfg.Objects)
		for i := 0; i < cfg.Objects; i++ {
			tpl := templates[gofakeit.Number(0, len(templates)-1)]
			o := Object{UUID: gofakeit.UUID(), Name: tpl.Name}
			for _, rel := range tpl.Relations {
				o.Attribute = append(o.Attribute, newAttribute(rel))
			}
			objs = append(objs, o)
		}
		body.Object = &objs
		return Capture{Event: body}
	}

	attrs := make([]Attribute, 0, cfg.Attributes)
	for i := 0; i < cfg.Attributes; i++ {
		attrs = append(attrs, newAttribute(flatRelations[i%len(flatRelations)]))
	}
	body.Attribute = &attrs
	return Capture{Event: body}
}

// Generate writes cfg.Events files into cfg.Output and returns their paths.
func Generate(cfg Config) ([]string, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.L()

	// deterministic data if seed provided
	gofakeit.Seed(cfg.Seed)

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, cfg.Events)
	for i := 1; i <= cfg.Events; i++ {
		c := NewEvent(cfg)
		b, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("encode event %d: %w", i, err)
		}
		path := filepath.Join(cfg.Output, fmt.Sprintf("%s-%04d.json", cfg.Prefix, i))
		if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		log.Debugw("event written", "path", path, "uuid", c.Event.UUID)
		paths = append(paths, path)
	}

	log.Infow("generation complete", "events", len(paths), "mode", cfg.Mode, "seed", cfg.Seed, "output", cfg.Output)
	return paths, nil
}
