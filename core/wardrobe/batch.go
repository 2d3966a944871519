package wardrobe

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/providers/ai"
)

// AnalysisOutcome is the result for one image of a batch.
type AnalysisOutcome struct {
	Index  int                          `json:"index"`
	Result extract.Result[ItemAnalysis] `json:"result"`
	Err    error                        `json:"-"`
}

// AnalyzeImages analyzes images concurrently, at most the configured
// concurrency at a time. Outcomes are returned in input order. A failure for
// one image only affects its own outcome; the rest of the batch still runs.
func (s *Service) AnalyzeImages(ctx context.Context, images []ai.Image, hint string) []AnalysisOutcome {
	outcomes := make([]AnalysisOutcome, len(images))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, image := range images {
		g.Go(func() error {
			result, err := s.AnalyzeImage(ctx, image, hint)
			outcomes[i] = AnalysisOutcome{Index: i, Result: result, Err: err}
			return nil
		})
	}

	// Workers never return an error.
	_ = g.Wait()
	return outcomes
}
