// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// EvalResult holds the outputs and errors of an evaluation run.
type EvalResult struct {

	// outputs of each output area, OutDim x T
	Outputs map[string]*mat.Dense

	// rates of each area, N x T, if requested
	Rates map[string]*mat.Dense

	// mean absolute error of each output area against the target
	MAE map[string]float64

	// proportion of target variance explained by each output area
	PVar map[string]float64
}

// Evaluate replays the chain over the input with learning off, starting
// from the initial state of every area, and returns the outputs of each
// output area with their error against target.  Weights and P are not
// touched, so repeated calls with the same weights and input return
// identical outputs.  The chain must be initialized (Training or Frozen);
// its lifecycle state is not changed.
func Evaluate(ch *Chain, input, target *Signal, recordRates bool) (*EvalResult, error) {
	if err := CheckSignals(ch, input, target); err != nil {
		return nil, err
	}
	if err := ch.CheckState(Training, Frozen); err != nil {
		return nil, err
	}
	nt := input.Len()
	res := &EvalResult{Outputs: make(map[string]*mat.Dense), MAE: make(map[string]float64), PVar: make(map[string]float64)}
	oas := ch.OutputAreas()
	for _, ar := range oas {
		res.Outputs[ar.Name] = mat.NewDense(ar.OutDim, nt, nil)
	}
	if recordRates {
		res.Rates = make(map[string]*mat.Dense)
		for _, ar := range ch.Areas {
			res.Rates[ar.Name] = mat.NewDense(ar.N, nt, nil)
		}
	}
	ch.InitState()
	for t := 1; t <= nt; t++ {
		err := ch.Cycle(input.Frame(t - 1))
		if err == nil {
			err = ch.Outputs(target.Frame(t - 1))
		}
		if err != nil {
			var ie *InstabilityError
			if errors.As(err, &ie) {
				ie.Epoch = -1
				ie.Step = t
			}
			return nil, err
		}
		for _, ar := range oas {
			res.Outputs[ar.Name].SetCol(t-1, ar.Z.RawVector().Data)
		}
		if recordRates {
			for _, ar := range ch.Areas {
				res.Rates[ar.Name].SetCol(t-1, ar.R.RawVector().Data)
			}
		}
	}
	for _, ar := range oas {
		res.MAE[ar.Name] = MAE(target.Data, res.Outputs[ar.Name])
		res.PVar[ar.Name] = PVar(target.Data, res.Outputs[ar.Name])
	}
	return res, nil
}
