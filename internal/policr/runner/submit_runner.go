package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pp-cti/policr/internal/policr/config"
	"github.com/pp-cti/policr/internal/policr/errs"
	"github.com/pp-cti/policr/internal/policr/ledger"
	"github.com/pp-cti/policr/internal/policr/logger"
	"github.com/pp-cti/policr/internal/policr/policy"
	"github.com/pp-cti/policr/internal/policr/submit"
)

// SubmitRequest selects where each part of a submission comes from. A part
// is generated from its form when the Generate flag is set, otherwise it is
// read from the given file.
type SubmitRequest struct {
	EventPath string

	PolicyPath     string
	GeneratePolicy bool
	PolicyForm     string

	HierarchyPath     string
	GenerateHierarchy bool
	HierarchyForm     string

	// OnWarning receives warnings of generated parts. Defaults to logging.
	OnWarning func(policy.Warning)
}

func (r SubmitRequest) report(warnings []policy.Warning) {
	for _, w := range warnings {
		if r.OnWarning != nil {
			r.OnWarning(w)
			continue
		}
		logger.L().Warnw("generated document warning", "field", w.Field, "message", w.Message)
	}
}

// memo resolves the wrapped input once so the generated hierarchy is built
// from the same policy that is submitted.
type memo struct {
	in   submit.Input
	once sync.Once
	data []byte
	err  error
}

func (m *memo) Resolve(ctx context.Context) ([]byte, error) {
	m.once.Do(func() { m.data, m.err = m.in.Resolve(ctx) })
	return m.data, m.err
}

func (m *memo) String() string { return m.in.String() }

// Inputs maps a request onto submission inputs.
func Inputs(req SubmitRequest, cfg *config.Config) (policyIn, hierarchyIn, eventIn submit.Input, err error) {
	if req.EventPath == "" {
		return nil, nil, nil, errs.Invalid(submit.EventKey, "no event selected")
	}
	eventIn = submit.File(req.EventPath)

	switch {
	case req.GeneratePolicy:
		if req.PolicyForm == "" {
			return nil, nil, nil, errs.Invalid(submit.PolicyKey, "generating a policy needs a policy form")
		}
		policyIn = submit.Generated(func(context.Context) ([]byte, error) {
			doc, warnings, err := BuildPolicy(req.EventPath, req.PolicyForm, cfg)
			req.report(warnings)
			if err != nil {
				return nil, err
			}
			return json.Marshal(doc)
		})
	case req.PolicyPath != "":
		policyIn = submit.File(req.PolicyPath)
	default:
		return nil, nil, nil, errs.Invalid(submit.PolicyKey, "no privacy policy selected")
	}
	policyIn = &memo{in: policyIn}

	switch {
	case req.GenerateHierarchy:
		if req.HierarchyForm == "" {
			return nil, nil, nil, errs.Invalid(submit.HierarchyKey, "generating a hierarchy needs a hierarchy form")
		}
		src := policyIn
		hierarchyIn = submit.Generated(func(ctx context.Context) ([]byte, error) {
			data, err := src.Resolve(ctx)
			if err != nil {
				return nil, err
			}
			doc, warnings, err := BuildHierarchy(data, req.HierarchyForm, cfg)
			req.report(warnings)
			if err != nil {
				return nil, err
			}
			return json.Marshal(doc)
		})
	case req.HierarchyPath != "":
		hierarchyIn = submit.File(req.HierarchyPath)
	default:
		return nil, nil, nil, errs.Invalid(submit.HierarchyKey, "no hierarchy policy selected")
	}
	return policyIn, hierarchyIn, eventIn, nil
}

// RunSubmit assembles the payload and posts it to the configured
// transformer. Outcomes go to the ledger when it is enabled.
func RunSubmit(ctx context.Context, req SubmitRequest, cfg *config.Config, opts ...submit.Option) (*submit.Result, error) {
	log := logger.L()
	summary := RunSummary{Command: "submit", Input: req.EventPath}
	if cfg == nil {
		cfg = config.Get()
	}

	policyIn, hierarchyIn, eventIn, err := Inputs(req, cfg)
	if err != nil {
		return nil, finish(cfg, summary, err)
	}
	payload, err := submit.Assemble(ctx, policyIn, hierarchyIn, eventIn)
	if err != nil {
		return nil, finish(cfg, summary, err)
	}
	summary.UUID = payload.PolicyUUID()

	if cfg.Ledger.Enabled {
		l, err := ledger.Open(ctx, cfg.Ledger)
		if err != nil {
			return nil, finish(cfg, summary, fmt.Errorf("open ledger: %w", err))
		}
		defer l.Close()
		opts = append([]submit.Option{submit.WithRecorder(l)}, opts...)
	}

	t := cfg.Transformer
	log.Infow("submitting", "endpoint", t.Endpoint, "transformer", t.Plugin, "policy_uuid", summary.UUID)
	res, err := submit.NewClient(t.Endpoint, t.Plugin, t.Token, t.Timeout, opts...).Submit(ctx, payload)
	if err != nil {
		return nil, finish(cfg, summary, err)
	}
	summary.Output = t.Endpoint
	return res, finish(cfg, summary, nil)
}
