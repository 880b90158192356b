package clinical

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxTextBytes caps normalized text before extraction. Dictionary
// matching runs hundreds of patterns per document; unbounded input would
// make worst-case matching time unbounded too.
const DefaultMaxTextBytes = 1 << 20

// Generator is the pipeline entry point: normalize, extract, enrich,
// render. It holds no mutable state after construction and is safe for
// concurrent use.
type Generator struct {
	kb        *KnowledgeBase
	extractor *Extractor
	log       *zap.Logger

	maxTextBytes int
	now          func() time.Time
}

type GeneratorOption func(*Generator)

// WithMaxTextBytes overrides the normalized-text cap.
func WithMaxTextBytes(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxTextBytes = n
		}
	}
}

// WithClock overrides the timestamp source for the metadata footer.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGenerator(kb *KnowledgeBase, log *zap.Logger, opts ...GeneratorOption) *Generator {
	g := &Generator{
		kb:           kb,
		extractor:    NewExtractor(kb),
		log:          log,
		maxTextBytes: DefaultMaxTextBytes,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs the full pipeline over decoded document text and returns
// the formatted report. Extraction misses are not errors; they resolve to
// documented placeholders.
func (g *Generator) Generate(ctx context.Context, text, fileName string, opts Options) (string, error) {
	report, _, err := g.GenerateWithInfo(ctx, text, fileName, opts)
	return report, err
}

// GenerateWithInfo is Generate plus the structured record the report was
// rendered from. This is the single catch boundary of the pipeline: any
// unexpected panic below is recovered, logged with the file name, and
// returned as one wrapped error. No partial report escapes.
func (g *Generator) GenerateWithInfo(ctx context.Context, text, fileName string, opts Options) (report string, info *MedicalInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("report generation panicked",
				zap.String("file", fileName),
				zap.Any("panic", r),
			)
			report = ""
			info = nil
			err = fmt.Errorf("generating report for %q: %v", fileName, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", nil, fmt.Errorf("generating report for %q: %w", fileName, err)
	}

	normalized := Normalize(text)
	if len(normalized) > g.maxTextBytes {
		normalized = normalized[:g.maxTextBytes]
	}

	info = g.extractor.Extract(normalized)

	if err := ctx.Err(); err != nil {
		return "", nil, fmt.Errorf("generating report for %q: %w", fileName, err)
	}

	Enrich(info)

	return Render(g.kb, info, opts, fileName, g.now()), info, nil
}

// Analyze runs extraction and enrichment without rendering. Callers that
// need the structured record (rather than the formatted report) use this.
func (g *Generator) Analyze(text string) *MedicalInfo {
	normalized := Normalize(text)
	if len(normalized) > g.maxTextBytes {
		normalized = normalized[:g.maxTextBytes]
	}
	info := g.extractor.Extract(normalized)
	Enrich(info)
	return info
}
