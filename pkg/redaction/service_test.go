package redaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilai/veil-oss/pkg/audit"
	"github.com/veilai/veil-oss/pkg/domain"
	"github.com/veilai/veil-oss/pkg/policy"
	"github.com/veilai/veil-oss/pkg/vault"
)

type stubDetector struct {
	spans []domain.EntitySpan
	err   error
}

func (d *stubDetector) Detect(context.Context, string) ([]domain.EntitySpan, error) {
	return d.spans, d.err
}

type captureAuditor struct {
	jobs   []audit.Job
	accept bool
}

func (a *captureAuditor) Submit(job audit.Job) bool {
	a.jobs = append(a.jobs, job)
	return a.accept
}

type stubGuard struct {
	err error
}

func (g *stubGuard) Authorize(context.Context, string, map[string]string) error {
	return g.err
}

type captureSink struct {
	records []domain.RestorationRecord
}

func (s *captureSink) Record(_ context.Context, record domain.RestorationRecord) {
	s.records = append(s.records, record)
}

type serviceFixture struct {
	service *Service
	vault   *vault.MemoryVault
	auditor *captureAuditor
	guard   *stubGuard
	sink    *captureSink
}

func newServiceFixture(t *testing.T, detector domain.Detector) *serviceFixture {
	t.Helper()

	v := vault.NewMemoryVault(time.Hour)
	t.Cleanup(func() { _ = v.Close() })

	engine := policy.NewEngine()
	auditor := &captureAuditor{accept: true}
	guard := &stubGuard{}
	sink := &captureSink{}

	service, err := NewService(ServiceConfig{
		Detector:       detector,
		Engine:         engine,
		Pipeline:       NewPipeline(engine, v, time.Hour),
		Restorer:       NewRestorer(v),
		Auditor:        auditor,
		Guard:          guard,
		Sink:           sink,
		DefaultContext: policy.ContextGeneral,
	})
	require.NoError(t, err)

	return &serviceFixture{service: service, vault: v, auditor: auditor, guard: guard, sink: sink}
}

func TestNewService_RequiresCoreComponents(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	require.Error(t, err)

	_, err = NewService(ServiceConfig{Detector: &stubDetector{}})
	require.Error(t, err)
}

func TestService_RedactQueuesAuditJobScopedToCall(t *testing.T) {
	detector := &stubDetector{spans: []domain.EntitySpan{
		{Type: "EMAIL_ADDRESS", Start: 0, End: 5, Score: 0.9},
	}}
	f := newServiceFixture(t, detector)
	ctx := context.Background()

	first, err := f.service.Redact(ctx, RedactRequest{Text: "aaaaa tail"})
	require.NoError(t, err)
	assert.Equal(t, "queued", first.AuditStatus)
	require.Len(t, first.Tokens, 1)

	second, err := f.service.Redact(ctx, RedactRequest{Text: "bbbbb tail"})
	require.NoError(t, err)
	require.Len(t, second.Tokens, 1)

	// Each audit job carries exactly its own call's tokens.
	require.Len(t, f.auditor.jobs, 2)
	assert.Equal(t, first.Tokens, f.auditor.jobs[0].Tokens)
	assert.Equal(t, second.Tokens, f.auditor.jobs[1].Tokens)
	assert.NotEqual(t, f.auditor.jobs[0].Tokens, f.auditor.jobs[1].Tokens)
	assert.Equal(t, first.RedactedText, f.auditor.jobs[0].RedactedText)
	assert.NotEmpty(t, f.auditor.jobs[0].ID)
}

func TestService_RedactReportsDroppedAudit(t *testing.T) {
	detector := &stubDetector{spans: []domain.EntitySpan{
		{Type: "EMAIL_ADDRESS", Start: 0, End: 5, Score: 0.9},
	}}
	f := newServiceFixture(t, detector)
	f.auditor.accept = false

	resp, err := f.service.Redact(context.Background(), RedactRequest{Text: "aaaaa tail"})
	require.NoError(t, err, "a full audit queue never fails the redaction")
	assert.Equal(t, "dropped", resp.AuditStatus)
	assert.NotEmpty(t, resp.Tokens)
}

func TestService_RedactWithoutAuditor(t *testing.T) {
	v := vault.NewMemoryVault(time.Hour)
	t.Cleanup(func() { _ = v.Close() })
	engine := policy.NewEngine()

	service, err := NewService(ServiceConfig{
		Detector: &stubDetector{},
		Engine:   engine,
		Pipeline: NewPipeline(engine, v, time.Hour),
		Restorer: NewRestorer(v),
	})
	require.NoError(t, err)

	resp, err := service.Redact(context.Background(), RedactRequest{Text: "plain"})
	require.NoError(t, err)
	assert.Equal(t, "disabled", resp.AuditStatus)
}

func TestService_RedactUnknownContext(t *testing.T) {
	f := newServiceFixture(t, &stubDetector{})

	_, err := f.service.Redact(context.Background(), RedactRequest{Text: "x", Context: "legal"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPolicyNotFound)
}

func TestService_RedactAppliesOverride(t *testing.T) {
	detector := &stubDetector{spans: []domain.EntitySpan{
		{Type: "EMAIL_ADDRESS", Start: 0, End: 5, Score: 0.9},
		{Type: "URL", Start: 6, End: 10, Score: 0.9},
	}}
	f := newServiceFixture(t, detector)

	resp, err := f.service.Redact(context.Background(), RedactRequest{
		Text:     "aaaaa bbbb",
		Override: &domain.PolicyOverride{DisabledEntities: []string{"URL"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Tokens, 1)
	assert.Contains(t, resp.RedactedText, "bbbb")
}

func TestService_SetDefaultContext(t *testing.T) {
	detector := &stubDetector{spans: []domain.EntitySpan{
		{Type: "PERSON", Start: 0, End: 5, Score: 0.9},
	}}
	f := newServiceFixture(t, detector)
	ctx := context.Background()

	// Reload path: the default context switches without rebuilding the graph.
	f.service.SetDefaultContext(policy.ContextHealthcare)

	resp, err := f.service.Redact(ctx, RedactRequest{Text: "aaaaa tail"})
	require.NoError(t, err)
	require.Len(t, resp.Tokens, 1)

	meta, ok, err := f.vault.GetMetadata(ctx, resp.Tokens[0])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, policy.ContextHealthcare, meta.PolicyContext)
	assert.False(t, meta.RestorationAllowed)

	// Healthcare's 0.5 confidence floor now applies to default-context calls.
	detector.spans = []domain.EntitySpan{{Type: "PERSON", Start: 0, End: 5, Score: 0.4}}
	resp, err = f.service.Redact(ctx, RedactRequest{Text: "bbbbb tail"})
	require.NoError(t, err)
	assert.Empty(t, resp.Tokens)
}

func TestService_RestoreRecordsSuccess(t *testing.T) {
	f := newServiceFixture(t, &stubDetector{})
	ctx := context.Background()

	token, err := f.vault.Mint(ctx, "alice", domain.EntryMetadata{RestorationAllowed: true}, time.Hour)
	require.NoError(t, err)

	result, err := f.service.Restore(ctx, RestoreRequest{
		Text:           "hello " + token,
		Context:        policy.ContextGeneral,
		EnforcePolicy:  true,
		ClientMetadata: map[string]string{"service": "support"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello alice", result.RestoredText)

	require.Len(t, f.sink.records, 1)
	record := f.sink.records[0]
	assert.True(t, record.Success)
	assert.Equal(t, 1, record.TokenCount)
	assert.Equal(t, "hello alice", record.RestoredText)
	assert.Equal(t, map[string]string{"service": "support"}, record.ClientMetadata)
	assert.NotEmpty(t, record.RequestID)
}

func TestService_RestoreGuardDenial(t *testing.T) {
	f := newServiceFixture(t, &stubDetector{})
	f.guard.err = domain.ErrAuthzDenied

	_, err := f.service.Restore(context.Background(), RestoreRequest{
		Text:          "nothing to restore",
		EnforcePolicy: true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthzDenied)

	require.Len(t, f.sink.records, 1)
	assert.False(t, f.sink.records[0].Success)
	assert.NotEmpty(t, f.sink.records[0].ErrorMessage)
}

func TestService_RestoreRecordsPolicyViolation(t *testing.T) {
	f := newServiceFixture(t, &stubDetector{})
	ctx := context.Background()

	token, err := f.vault.Mint(ctx, "phi", domain.EntryMetadata{PolicyContext: "healthcare", RestorationAllowed: false}, time.Hour)
	require.NoError(t, err)

	_, err = f.service.Restore(ctx, RestoreRequest{Text: token, EnforcePolicy: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)

	require.Len(t, f.sink.records, 1)
	record := f.sink.records[0]
	assert.False(t, record.Success)
	assert.Equal(t, 1, record.TokenCount)
}
