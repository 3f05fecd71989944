// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package signal generates and transforms space x time signal arrays
// (rows = dimensions, columns = frames) used as inputs and targets
// for training recurrent networks.
package signal

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sine returns a dim x nt array of sinusoids of given frequency (cycles per
// unit time) sampled every dt, with the phase of row i shifted by
// i * phaseStep radians.
func Sine(dim, nt int, freq, dt, phaseStep float64) *mat.Dense {
	m := mat.NewDense(dim, nt, nil)
	for i := 0; i < dim; i++ {
		ph := float64(i) * phaseStep
		for t := 0; t < nt; t++ {
			m.Set(i, t, math.Sin(2*math.Pi*freq*float64(t)*dt+ph))
		}
	}
	return m
}

// WhiteNoiseParams are the parameters of low-pass filtered white noise input.
type WhiteNoiseParams struct {

	// filter time constant
	Tau float64 `def:"0.1" min:"0"`

	// time step
	Dt float64 `def:"0.01" min:"0"`

	// overall amplitude of the input
	Amp float64 `def:"0.01"`

	// starting value of the filtered noise, before scaling by Amp
	Start float64 `def:"1"`
}

func (wp *WhiteNoiseParams) Defaults() {
	wp.Tau = 0.1
	wp.Dt = 0.01
	wp.Amp = 0.01
	wp.Start = 1
}

// WhiteNoise returns a dim x nt array of exponentially filtered white
// noise: raw noise has std sqrt(Tau/Dt) and each frame relaxes toward
// the new noise sample with factor exp(-Dt/Tau).  Result is scaled by Amp.
func WhiteNoise(dim, nt int, wp *WhiteNoiseParams, src rand.Source) *mat.Dense {
	nrm := distuv.Normal{Mu: 0, Sigma: math.Sqrt(wp.Tau / wp.Dt), Src: src}
	decay := math.Exp(-wp.Dt / wp.Tau)
	m := mat.NewDense(dim, nt, nil)
	for i := 0; i < dim; i++ {
		prv := wp.Start
		m.Set(i, 0, prv)
		for t := 1; t < nt; t++ {
			wn := nrm.Rand()
			prv = wn + (prv-wn)*decay
			m.Set(i, t, prv)
		}
	}
	m.Scale(wp.Amp, m)
	return m
}

// Normalize rescales m in place to [0, 1] using its global min and max.
// A constant array is left unchanged.
func Normalize(m *mat.Dense) {
	raw := flat(m)
	mn := floats.Min(raw)
	mx := floats.Max(raw)
	if mx-mn == 0 {
		return
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		floats.AddConst(-mn, row[:c])
		floats.Scale(1/(mx-mn), row[:c])
	}
}

// Downsample returns a copy of m keeping every factor-th column,
// starting with the first.
func Downsample(m mat.Matrix, factor int) *mat.Dense {
	if factor < 1 {
		factor = 1
	}
	r, c := m.Dims()
	nc := (c + factor - 1) / factor
	d := mat.NewDense(r, nc, nil)
	for j := 0; j < nc; j++ {
		d.SetCol(j, mat.Col(nil, j*factor, m))
	}
	return d
}

// Threshold sets each value of m in place to 1 if above thr, else 0.
func Threshold(m *mat.Dense, thr float64) {
	m.Apply(func(i, j int, v float64) float64 {
		if v > thr {
			return 1
		}
		return 0
	}, m)
}

// flat returns all values of m in row order
func flat(m *mat.Dense) []float64 {
	r, c := m.Dims()
	vals := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		vals = append(vals, m.RawRowView(i)[:c]...)
	}
	return vals
}
