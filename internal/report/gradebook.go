package report

import (
	"context"

	"github.com/mind-engage/fofgrade/pkg/gradebook"
)

// GradebookStore exposes stored runs to the LMS passback.
type GradebookStore struct{ *SQLStore }

var _ gradebook.Store = GradebookStore{}

func (g GradebookStore) GetRun(ctx context.Context, id string) (gradebook.Run, error) {
	r, err := g.SQLStore.GetRun(ctx, id)
	if err != nil {
		return gradebook.Run{}, err
	}
	return gradebook.Run{ID: r.ID, Total: r.Total, MaxTotal: r.MaxTotal, NeedsReview: r.HasEnvErrors()}, nil
}
