// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SSE returns the sum of squared differences between target and output.
func SSE(target, output mat.Matrix) float64 {
	r, _ := target.Dims()
	sse := 0.0
	for i := 0; i < r; i++ {
		d := floats.Distance(mat.Row(nil, i, target), mat.Row(nil, i, output), 2)
		sse += d * d
	}
	return sse
}

// MAE returns the mean absolute difference between target and output.
func MAE(target, output mat.Matrix) float64 {
	r, c := target.Dims()
	if r*c == 0 {
		return 0
	}
	sae := 0.0
	for i := 0; i < r; i++ {
		sae += floats.Distance(mat.Row(nil, i, target), mat.Row(nil, i, output), 1)
	}
	return sae / float64(r*c)
}

// TotalSS returns the sum over rows of squared deviations of each row
// of target from its mean over time.
func TotalSS(target mat.Matrix) float64 {
	r, _ := target.Dims()
	tss := 0.0
	for i := 0; i < r; i++ {
		row := mat.Row(nil, i, target)
		mn := stat.Mean(row, nil)
		floats.AddConst(-mn, row)
		tss += floats.Dot(row, row)
	}
	return tss
}

// PVar returns the proportion of target variance explained by output:
// 1 - SSE / TotalSS, with the target mean taken per row over time.
// Returns NaN for a target with no variance.
func PVar(target, output mat.Matrix) float64 {
	tss := TotalSS(target)
	if tss == 0 {
		return math.NaN()
	}
	return 1 - SSE(target, output)/tss
}

// EpochStats are the summary statistics of one epoch for one output area.
type EpochStats struct {

	// area name
	Area string

	// proportion of variance explained
	PVar float64

	// sum squared error
	SSE float64

	// mean absolute error
	MAE float64

	// minimum eigenvalue of P at the end of the epoch, NaN if not computed
	MinEig float64
}

// ComputeStats fills the error statistics from target and output.
func (es *EpochStats) ComputeStats(target, output mat.Matrix) {
	es.SSE = SSE(target, output)
	es.MAE = MAE(target, output)
	tss := TotalSS(target)
	if tss == 0 {
		es.PVar = math.NaN()
	} else {
		es.PVar = 1 - es.SSE/tss
	}
}
