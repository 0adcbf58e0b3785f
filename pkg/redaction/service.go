package redaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veilai/veil-oss/pkg/audit"
	"github.com/veilai/veil-oss/pkg/domain"
	"github.com/veilai/veil-oss/pkg/policy"
	"github.com/veilai/veil-oss/pkg/telemetry"
	"github.com/veilai/veil-oss/pkg/vault"
)

// AuditSubmitter enqueues leak-audit jobs. Submit must never block.
type AuditSubmitter interface {
	Submit(job audit.Job) bool
}

// RestoreGuard authorizes a restore attempt before the pipeline runs.
type RestoreGuard interface {
	Authorize(ctx context.Context, policyContext string, clientMetadata map[string]string) error
}

// RedactRequest is one redaction call.
type RedactRequest struct {
	Text string
	// Context names the policy preset to apply; empty selects the service
	// default.
	Context  string
	Override *domain.PolicyOverride
}

// RedactResponse carries the redacted text plus the scores and tokens scoped
// to this call.
type RedactResponse struct {
	RedactedText     string    `json:"redacted_text"`
	ConfidenceScores []float64 `json:"confidence_scores"`
	Tokens           []string  `json:"tokens"`
	AuditStatus      string    `json:"audit_status"`
}

// RestoreRequest is one restoration call.
type RestoreRequest struct {
	Text string
	// Context is the policy context the caller claims to operate under;
	// it feeds the authorization guard, not the per-token gate.
	Context        string
	EnforcePolicy  bool
	ClientMetadata map[string]string
}

// Service is the explicitly constructed component graph tying detector,
// policy engine, vault pipelines, and the leak-audit loop together. There is
// no ambient global instance; the composition root owns the lifecycle.
type Service struct {
	detector domain.Detector
	engine   *policy.Engine
	pipeline *Pipeline
	restorer *Restorer
	auditor  AuditSubmitter
	guard    RestoreGuard
	sink     domain.AuditSink
	metrics  *telemetry.Metrics
	logger   *slog.Logger

	mu             sync.RWMutex
	defaultContext string
}

// ServiceConfig wires a Service. Detector, Engine, Pipeline and Restorer are
// required; Auditor, Guard, Sink and Metrics may be nil and disable their
// feature when absent.
type ServiceConfig struct {
	Detector       domain.Detector
	Engine         *policy.Engine
	Pipeline       *Pipeline
	Restorer       *Restorer
	Auditor        AuditSubmitter
	Guard          RestoreGuard
	Sink           domain.AuditSink
	Metrics        *telemetry.Metrics
	Logger         *slog.Logger
	DefaultContext string
}

// NewService validates and assembles the component graph.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Detector == nil {
		return nil, fmt.Errorf("redaction: detector is required")
	}
	if cfg.Engine == nil || cfg.Pipeline == nil || cfg.Restorer == nil {
		return nil, fmt.Errorf("redaction: engine, pipeline and restorer are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		detector:       cfg.Detector,
		engine:         cfg.Engine,
		pipeline:       cfg.Pipeline,
		restorer:       cfg.Restorer,
		auditor:        cfg.Auditor,
		guard:          cfg.Guard,
		sink:           cfg.Sink,
		metrics:        cfg.Metrics,
		logger:         logger.With("component", "redaction.service"),
		defaultContext: cfg.DefaultContext,
	}, nil
}

// SetDefaultContext changes the policy context applied when a redaction call
// names none. Called by the config reload path.
func (s *Service) SetDefaultContext(contextName string) {
	s.mu.Lock()
	s.defaultContext = contextName
	s.mu.Unlock()
}

func (s *Service) currentDefaultContext() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultContext
}

// Redact detects, filters, and tokenizes sensitive spans in req.Text, then
// hands the redacted text to the leak auditor. The audit job never delays
// this call's return.
func (s *Service) Redact(ctx context.Context, req RedactRequest) (RedactResponse, error) {
	started := time.Now()

	pol, err := s.resolvePolicy(req.Context, req.Override)
	if err != nil {
		return RedactResponse{}, err
	}

	spans, err := s.detector.Detect(ctx, req.Text)
	if err != nil {
		return RedactResponse{}, fmt.Errorf("redaction: detect: %w", err)
	}

	result, err := s.pipeline.Redact(ctx, req.Text, spans, pol)
	if err != nil {
		return RedactResponse{}, err
	}

	s.metrics.ObserveRedaction(result.Scores)
	policyContext := ""
	if pol != nil {
		policyContext = pol.Context
	}
	telemetry.RecordRedactionMetrics(ctx, telemetry.RedactionMetrics{
		PolicyContext: policyContext,
		SpansApplied:  len(result.Tokens),
		Duration:      time.Since(started),
	})

	auditStatus := "disabled"
	if s.auditor != nil {
		job := audit.Job{
			ID:           uuid.NewString(),
			RedactedText: result.RedactedText,
			Tokens:       result.Tokens,
		}
		if s.auditor.Submit(job) {
			auditStatus = "queued"
		} else {
			auditStatus = "dropped"
		}
	}

	return RedactResponse{
		RedactedText:     result.RedactedText,
		ConfidenceScores: result.Scores,
		Tokens:           result.Tokens,
		AuditStatus:      auditStatus,
	}, nil
}

// Restore resolves tokens in req.Text back to their originals and emits one
// audit record for the attempt, success or not.
func (s *Service) Restore(ctx context.Context, req RestoreRequest) (domain.RestorationResult, error) {
	requestID := uuid.NewString()
	tokenCount := len(vault.ExtractTokens(req.Text))

	if s.guard != nil {
		if err := s.guard.Authorize(ctx, req.Context, req.ClientMetadata); err != nil {
			s.recordRestore(ctx, requestID, req, domain.RestorationResult{}, tokenCount, err)
			outcome := telemetry.RestoreOutcomeError
			if errors.Is(err, domain.ErrAuthzDenied) {
				outcome = telemetry.RestoreOutcomeAuthzDenied
			}
			s.metrics.RecordRestore(outcome, 0)
			telemetry.RecordRestoreMetrics(ctx, outcome)
			return domain.RestorationResult{}, err
		}
	}

	result, err := s.restorer.Restore(ctx, req.Text, RestoreOptions{EnforcePolicy: req.EnforcePolicy})
	if err != nil {
		s.recordRestore(ctx, requestID, req, domain.RestorationResult{}, tokenCount, err)
		outcome := telemetry.RestoreOutcomeError
		if errors.Is(err, domain.ErrPolicyViolation) {
			outcome = telemetry.RestoreOutcomePolicyViolation
		}
		s.metrics.RecordRestore(outcome, 0)
		telemetry.RecordRestoreMetrics(ctx, outcome)
		return domain.RestorationResult{}, err
	}

	s.metrics.RecordRestore(telemetry.RestoreOutcomeSuccess, len(result.TokensMissing))
	telemetry.RecordRestoreMetrics(ctx, telemetry.RestoreOutcomeSuccess)
	s.recordRestore(ctx, requestID, req, result, tokenCount, nil)
	return result, nil
}

func (s *Service) resolvePolicy(contextName string, override *domain.PolicyOverride) (*domain.RedactionPolicy, error) {
	if contextName == "" {
		contextName = s.currentDefaultContext()
	}
	if contextName == "" && override == nil {
		// Policy-less redaction: every span survives, restoration allowed.
		return nil, nil
	}
	if contextName == "" {
		contextName = policy.ContextGeneral
	}

	base, err := s.engine.Load(contextName)
	if err != nil {
		return nil, err
	}
	merged := s.engine.Merge(base, override)
	return &merged, nil
}

func (s *Service) recordRestore(ctx context.Context, requestID string, req RestoreRequest, result domain.RestorationResult, tokenCount int, restoreErr error) {
	if s.sink == nil {
		return
	}

	record := domain.RestorationRecord{
		RequestID:      requestID,
		RedactedText:   req.Text,
		RestoredText:   result.RestoredText,
		TokenCount:     tokenCount,
		Success:        restoreErr == nil,
		ClientMetadata: req.ClientMetadata,
	}
	if restoreErr != nil {
		record.ErrorMessage = restoreErr.Error()
	}
	s.sink.Record(ctx, record)
}
