package questionnaire

import (
	"context"

	"github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
)

// analysisRun carries the inputs and outputs of the closing calls.
type analysisRun struct {
	username    string
	responses   questionnaire.Responses
	demographic prediction.DemographicPrediction
	final       prediction.FinalPrediction
}

type stage struct {
	name Stage
	run  func(ctx context.Context, run *analysisRun) error
}

// closingStages runs after the last answer. Order matters: the final
// prediction reads what store_demographics recorded.
func closingStages(p Predictor) []stage {
	return []stage{
		{
			name: StageStoreDemographics,
			run: func(ctx context.Context, run *analysisRun) error {
				result, err := p.StoreDemographics(ctx, run.username, run.responses)
				if err != nil {
					return err
				}
				run.demographic = result
				return nil
			},
		},
		{
			name: StageFinalPrediction,
			run: func(ctx context.Context, run *analysisRun) error {
				result, err := p.FinalPrediction(ctx, run.username)
				if err != nil {
					return err
				}
				run.final = result
				return nil
			},
		},
	}
}

// runStages executes stages in order and stops at the first failure.
func runStages(ctx context.Context, stages []stage, run *analysisRun) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return &ExternalCallError{Stage: st.name, Err: err}
		}
		if err := st.run(ctx, run); err != nil {
			return &ExternalCallError{Stage: st.name, Err: err}
		}
	}
	return nil
}
