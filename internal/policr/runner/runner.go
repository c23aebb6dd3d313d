package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pp-cti/policr/internal/policr/config"
	"github.com/pp-cti/policr/internal/policr/form"
	"github.com/pp-cti/policr/internal/policr/hierarchy"
	"github.com/pp-cti/policr/internal/policr/logger"
	"github.com/pp-cti/policr/internal/policr/policy"
)

// RunSummary is appended to the run log after every command.
type RunSummary struct {
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	Input     string `json:"input"`
	Output    string `json:"output,omitempty"`
	UUID      string `json:"uuid,omitempty"`
	Warnings  int    `json:"warnings"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

func appendRunLog(path string, summary RunSummary) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	return enc.Encode(summary)
}

// finish stamps and records s if a run log is configured. err is returned
// unchanged.
func finish(cfg *config.Config, s RunSummary, err error) error {
	s.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	s.Status = "ok"
	if err != nil {
		s.Status = "failed"
		s.Error = err.Error()
	}
	if cfg == nil || cfg.Logging.RunLog == "" {
		return err
	}
	if lerr := appendRunLog(cfg.Logging.RunLog, s); lerr != nil {
		logger.L().Errorw("failed to write run log", "path", cfg.Logging.RunLog, "err", lerr.Error())
	} else {
		logger.L().Debugw("wrote run summary", "path", cfg.Logging.RunLog)
	}
	return err
}

// HeaderFrom returns the document header configured in cfg.
func HeaderFrom(cfg *config.Config) policy.Header {
	if cfg == nil {
		return policy.Header{}
	}
	return policy.Header{
		Creator:      cfg.Policy.Creator,
		Organization: cfg.Policy.Organization,
		Version:      cfg.Policy.Version,
	}
}

// Result describes a generated document.
type Result struct {
	Path     string
	UUID     string
	Warnings []policy.Warning
}

// BuildPolicy loads an event, replays the form over it and finalizes the
// privacy policy. Form warnings come first, then finalize warnings.
func BuildPolicy(eventPath, formPath string, cfg *config.Config) (*policy.Document, []policy.Warning, error) {
	data, err := os.ReadFile(eventPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read event %s: %w", filepath.Base(eventPath), err)
	}
	s := policy.NewSession(HeaderFrom(cfg))
	if err := s.LoadEvent(filepath.Base(eventPath), data); err != nil {
		return nil, nil, err
	}
	f, err := form.LoadPolicy(formPath)
	if err != nil {
		return nil, nil, err
	}
	warnings := form.ApplyPolicy(s, f)

	doc, w, err := s.Build()
	if err != nil {
		return nil, warnings, err
	}
	return doc, append(warnings, w...), nil
}

// PolicyRequest names the inputs of a policy build.
type PolicyRequest struct {
	EventPath string
	FormPath  string
	OutDir    string
}

// RunPolicy builds a privacy policy and writes it next to the other outputs
// as <event>-policy.json.
func RunPolicy(ctx context.Context, req PolicyRequest, cfg *config.Config) (*Result, error) {
	log := logger.L()
	log.Infow("starting policy build", "event", req.EventPath, "form", req.FormPath)
	summary := RunSummary{Command: "policy", Input: req.EventPath}

	if err := ctx.Err(); err != nil {
		return nil, finish(cfg, summary, err)
	}
	doc, warnings, err := BuildPolicy(req.EventPath, req.FormPath, cfg)
	summary.Warnings = len(warnings)
	if err != nil {
		return &Result{Warnings: warnings}, finish(cfg, summary, err)
	}

	path := filepath.Join(outDir(req.OutDir, cfg), policy.OutputName(req.EventPath, policy.PolicySuffix))
	if err := writeJSON(path, doc); err != nil {
		return nil, finish(cfg, summary, err)
	}
	summary.Output = path
	summary.UUID = doc.PrivacyPolicy.UUID

	log.Infow("completed policy build", "output", path, "uuid", summary.UUID, "warnings", len(warnings))
	return &Result{Path: path, UUID: summary.UUID, Warnings: warnings}, finish(cfg, summary, nil)
}

// BuildHierarchy replays a hierarchy form over the candidates of a privacy
// policy and finalizes the hierarchy document.
func BuildHierarchy(policyData []byte, formPath string, cfg *config.Config) (*hierarchy.Document, []policy.Warning, error) {
	c, err := hierarchy.Load(policyData)
	if err != nil {
		return nil, nil, err
	}
	f, err := form.LoadHierarchy(formPath)
	if err != nil {
		return nil, nil, err
	}
	hf, warnings := form.ApplyHierarchy(hierarchy.NewForm(c), f)

	doc, w, err := hf.Build(form.OverlayHeader(HeaderFrom(cfg), f.Header), nil)
	if err != nil {
		return nil, warnings, err
	}
	return doc, append(warnings, w...), nil
}

// HierarchyRequest names the inputs of a hierarchy build.
type HierarchyRequest struct {
	PolicyPath string
	FormPath   string
	OutDir     string
}

// RunHierarchy builds a hierarchy policy for a finalized privacy policy.
func RunHierarchy(ctx context.Context, req HierarchyRequest, cfg *config.Config) (*Result, error) {
	log := logger.L()
	log.Infow("starting hierarchy build", "policy", req.PolicyPath, "form", req.FormPath)
	summary := RunSummary{Command: "hierarchy", Input: req.PolicyPath}

	if err := ctx.Err(); err != nil {
		return nil, finish(cfg, summary, err)
	}
	data, err := os.ReadFile(req.PolicyPath)
	if err != nil {
		return nil, finish(cfg, summary, fmt.Errorf("read policy %s: %w", filepath.Base(req.PolicyPath), err))
	}
	doc, warnings, err := BuildHierarchy(data, req.FormPath, cfg)
	summary.Warnings = len(warnings)
	if err != nil {
		return &Result{Warnings: warnings}, finish(cfg, summary, err)
	}

	path := filepath.Join(outDir(req.OutDir, cfg), HierarchyName(req.PolicyPath))
	if err := writeJSON(path, doc); err != nil {
		return nil, finish(cfg, summary, err)
	}
	summary.Output = path
	summary.UUID = doc.HierarchyPolicy.UUID

	log.Infow("completed hierarchy build", "output", path, "uuid", summary.UUID, "warnings", len(warnings))
	return &Result{Path: path, UUID: summary.UUID, Warnings: warnings}, finish(cfg, summary, nil)
}

// HierarchyName derives the hierarchy file name from a policy file name:
// "case-policy.json" and "case.json" both give "case-hierarchy.json".
func HierarchyName(policyPath string) string {
	base := filepath.Base(policyPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, "-"+policy.PolicySuffix)
	return policy.OutputName(base, policy.HierarchySuffix)
}

func outDir(dir string, cfg *config.Config) string {
	if dir != "" {
		return dir
	}
	if cfg != nil && cfg.Output.Dir != "" {
		return cfg.Output.Dir
	}
	return "."
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
