package detect

import (
	"context"
	"sort"

	"github.com/veilai/veil-oss/pkg/domain"
)

// Analyzer applies detection rules to text and emits entity spans. It
// implements domain.Detector.
type Analyzer struct {
	rules []compiledRule
}

// Detect runs every rule against text and returns the matches as spans
// ordered by start offset. Spans from different rules may overlap; the
// redaction pipeline resolves overlaps.
func (a *Analyzer) Detect(ctx context.Context, text string) ([]domain.EntitySpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var spans []domain.EntitySpan
	for _, rule := range a.rules {
		matches := rule.expr.FindAllStringIndex(text, -1)
		for _, match := range matches {
			spans = append(spans, domain.EntitySpan{
				Type:  rule.entityType,
				Start: match[0],
				End:   match[1],
				Score: rule.score,
			})
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start == spans[j].Start {
			return spans[i].End < spans[j].End
		}
		return spans[i].Start < spans[j].Start
	})

	return spans, nil
}
