package projection

import (
	"context"

	"github.com/kailas-cloud/crawlscope/internal/domain/termvec"
)

// Adapter builds term-frequency matrices and reduces them.
type Adapter interface {
	TermFrequencyMatrix(ctx context.Context, dataset string, urls []string) (termvec.Matrix, error)
	ReduceDimensions(m termvec.Matrix, k int) (termvec.Reduction, error)
}
