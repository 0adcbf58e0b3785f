package domain

import "context"

// EntitySpan is a single detected sensitive-information occurrence inside a
// text. Offsets are byte offsets into the analyzed string; spans coming from
// an external detector may overlap and carry no ordering guarantee.
type EntitySpan struct {
	// Type is the entity class label (e.g. "EMAIL_ADDRESS", "US_SSN").
	Type string
	// Start is the inclusive byte offset where the span begins.
	Start int
	// End is the exclusive byte offset where the span ends.
	End int
	// Score is the detector confidence in the range [0, 1].
	Score float64
}

// Detector locates sensitive entity spans in free text. Implementations are
// treated as untrusted input sources: returned spans may overlap and arrive
// in any order.
type Detector interface {
	Detect(ctx context.Context, text string) ([]EntitySpan, error)
}
