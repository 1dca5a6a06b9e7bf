package commands

import (
	"context"
	"fmt"

	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/margin/scenario"
	"github.com/colonyops/margin/pkg/iojson"
)

// scenarioInput reads and validates the scenario named by the -f flag.
type scenarioInput struct {
	iojson.FileReader[scenario.Scenario]
}

func (in *scenarioInput) load() (*scenario.Scenario, error) {
	sc, err := in.Read()
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// open loads the scenario and starts a runner for it.
func (in *scenarioInput) open(ctx context.Context, flags *Flags, opts margin.EditorOptions) (*scenario.Runner, error) {
	sc, err := in.load()
	if err != nil {
		return nil, err
	}
	return scenario.NewRunner(ctx, flags.App, sc, opts)
}
