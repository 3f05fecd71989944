// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"errors"
	"fmt"
	"math"

	"github.com/emer/empi/v2/mpi"
	"github.com/emer/etable/v2/etable"
	"github.com/emer/force/rls"
	"gonum.org/v1/gonum/mat"
)

// Trainer runs FORCE training of a Chain over an input / target time series
// for a number of epochs.  Every epoch restarts the areas from the same
// initial state and replays the same signals, while J, W and P keep
// evolving, so the per-epoch statistics track learning progress.
type Trainer struct {

	// the chain being trained
	Chain *Chain `view:"-"`

	// driving input, InDim x T
	Input *Signal `view:"-"`

	// target, OutDim x T
	Target *Signal `view:"-"`

	// number of epochs to train in Train
	NEpochs int `min:"1"`

	// compute the minimum eigenvalue of each P at the end of every epoch,
	// and abort if it is below -PSDTol
	CheckPSD bool

	// tolerance on negative eigenvalues of P for CheckPSD
	PSDTol float64 `def:"1e-8" viewif:"CheckPSD"`

	// record the rate trajectories of every area for the last epoch
	RecordRates bool

	// print a line per epoch
	Verbose bool

	// number of epochs trained so far
	Epoch int `inactive:"+"`

	// current step within the epoch, 1-based
	Step int `inactive:"+"`

	// statistics per epoch, per output area in chain order
	Stats [][]EpochStats `view:"-"`

	// outputs of each output area during the last epoch, OutDim x T
	Outputs map[string]*mat.Dense `view:"-"`

	// rates of each area during the last epoch, N x T, if RecordRates
	Rates map[string]*mat.Dense `view:"-"`

	// epoch log, one row per epoch
	EpochLog *etable.Table `view:"no-inline"`
}

// NewTrainer returns a new Trainer for given built chain and signals.
// Signal sizes are checked against the chain here.
func NewTrainer(ch *Chain, input, target *Signal, nEpochs int) (*Trainer, error) {
	if err := CheckSignals(ch, input, target); err != nil {
		return nil, err
	}
	if nEpochs < 1 {
		return nil, cfgErr("number of epochs must be >= 1, got %d", nEpochs)
	}
	tr := &Trainer{Chain: ch, Input: input, Target: target, NEpochs: nEpochs}
	tr.PSDTol = 1e-8
	tr.Outputs = make(map[string]*mat.Dense)
	for _, ar := range ch.OutputAreas() {
		tr.Outputs[ar.Name] = mat.NewDense(ar.OutDim, target.Len(), nil)
	}
	tr.EpochLog = &etable.Table{}
	tr.ConfigEpochLog(tr.EpochLog)
	return tr, nil
}

// CheckSignals returns an ErrDimensionMismatch error if the signals do not
// match the chain's input and target dimensions or are not time aligned.
func CheckSignals(ch *Chain, input, target *Signal) error {
	if ch.AreaMap == nil {
		return fmt.Errorf("%w: chain %s is not built", ErrState, ch.Name)
	}
	if input == nil || target == nil {
		return dimErr("input and target signals are required")
	}
	if input.Dim() != ch.InDim {
		return dimErr("input %s has dim %d, chain %s expects %d", input.Name, input.Dim(), ch.Name, ch.InDim)
	}
	if target.Dim() != ch.OutDim {
		return dimErr("target %s has dim %d, chain %s expects %d", target.Name, target.Dim(), ch.Name, ch.OutDim)
	}
	return CheckAligned(input, target)
}

// Train runs NEpochs epochs of training, continuing from the current weights.
// Stops at the first numerical failure, which is returned as an
// *InstabilityError naming the epoch, step and area.
func (tr *Trainer) Train() error {
	for ep := 0; ep < tr.NEpochs; ep++ {
		if _, err := tr.TrainEpoch(); err != nil {
			return err
		}
	}
	return nil
}

// TrainEpoch runs one pass over the time series with learning on,
// records and logs the epoch statistics, and returns them.
func (tr *Trainer) TrainEpoch() ([]EpochStats, error) {
	ch := tr.Chain
	if err := ch.CheckState(Training); err != nil {
		return nil, err
	}
	tr.allocRates()
	ch.InitState()
	nt := tr.Input.Len()
	for t := 1; t <= nt; t++ {
		tr.Step = t
		if err := ch.Cycle(tr.Input.Frame(t - 1)); err != nil {
			return nil, tr.stepErr(err)
		}
		if err := ch.Outputs(tr.Target.Frame(t - 1)); err != nil {
			return nil, tr.stepErr(err)
		}
		tr.record(t - 1)
		if err := ch.Learn(); err != nil {
			return nil, tr.stepErr(err)
		}
	}
	stats, err := tr.epochStats()
	if err != nil {
		return nil, err
	}
	tr.Stats = append(tr.Stats, stats)
	tr.LogEpoch(tr.EpochLog, stats)
	if tr.Verbose {
		for _, es := range stats {
			mpi.Printf("Epoch: %d\tArea: %s\tPVar: %.4f\tMAE: %.4f\n", tr.Epoch, es.Area, es.PVar, es.MAE)
		}
	}
	tr.Epoch++
	return stats, nil
}

// PVarHistory returns the per-epoch PVar of given output area.
func (tr *Trainer) PVarHistory(area string) []float64 {
	var pv []float64
	for _, eps := range tr.Stats {
		for _, es := range eps {
			if es.Area == area {
				pv = append(pv, es.PVar)
			}
		}
	}
	return pv
}

// stepErr adds the epoch and step to an instability error
func (tr *Trainer) stepErr(err error) error {
	var ie *InstabilityError
	if errors.As(err, &ie) {
		ie.Epoch = tr.Epoch
		ie.Step = tr.Step
	}
	return err
}

func (tr *Trainer) allocRates() {
	if !tr.RecordRates {
		return
	}
	if tr.Rates == nil {
		tr.Rates = make(map[string]*mat.Dense)
	}
	for _, ar := range tr.Chain.Areas {
		if _, has := tr.Rates[ar.Name]; !has {
			tr.Rates[ar.Name] = mat.NewDense(ar.N, tr.Input.Len(), nil)
		}
	}
}

// record stores the outputs (and rates) of the current step in column col
func (tr *Trainer) record(col int) {
	for _, ar := range tr.Chain.Areas {
		if ar.HasOutput() {
			tr.Outputs[ar.Name].SetCol(col, ar.Z.RawVector().Data)
		}
		if tr.RecordRates {
			tr.Rates[ar.Name].SetCol(col, ar.R.RawVector().Data)
		}
	}
}

func (tr *Trainer) epochStats() ([]EpochStats, error) {
	oas := tr.Chain.OutputAreas()
	stats := make([]EpochStats, len(oas))
	idx := make(map[string]int, len(oas))
	for i, ar := range oas {
		es := &stats[i]
		es.Area = ar.Name
		es.ComputeStats(tr.Target.Data, tr.Outputs[ar.Name])
		es.MinEig = math.NaN()
		idx[ar.Name] = i
	}
	if !tr.CheckPSD {
		return stats, nil
	}
	for _, ar := range tr.Chain.Areas {
		mn, err := rls.MinEigen(ar.RLS.P)
		if err != nil {
			return nil, &InstabilityError{Epoch: tr.Epoch, Step: tr.Step, Area: ar.Name, Reason: "P eigen decomposition", Err: err}
		}
		if mn < -tr.PSDTol {
			return nil, &InstabilityError{Epoch: tr.Epoch, Step: tr.Step, Area: ar.Name, Reason: fmt.Sprintf("P has negative eigenvalue %g", mn)}
		}
		if i, has := idx[ar.Name]; has {
			stats[i].MinEig = mn
		}
	}
	return stats, nil
}
