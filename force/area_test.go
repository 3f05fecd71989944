// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = 1.0e-12

func TestDecay(t *testing.T) {
	ar := NewArea("A", 3, "", ReadoutNone)
	ar.Params.Dt.Tau = 1
	ar.Params.Dt.Dt = 0.1
	ar.Params.Learn.LearnJ = false
	if err := ar.Build(3); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		ar.X0.SetVec(i, 0.5)
	}
	ar.InitState()
	for st := 0; st < 3; st++ {
		ar.DriveFmInput(mat.NewVecDense(3, nil))
		if err := ar.Step(); err != nil {
			t.Fatal(err)
		}
	}
	cor := 0.5 * 0.9 * 0.9 * 0.9
	for i := 0; i < 3; i++ {
		x := ar.X.AtVec(i)
		if dif := math.Abs(x - cor); dif > difTol {
			t.Errorf("decay err: idx: %d x: %v cor: %v dif: %v\n", i, x, cor, dif)
		}
		if dif := math.Abs(ar.R.AtVec(i) - math.Tanh(cor)); dif > difTol {
			t.Errorf("rate err: idx: %d r: %v cor: %v\n", i, ar.R.AtVec(i), math.Tanh(cor))
		}
	}
	if math.Abs(cor-0.3645) > difTol {
		t.Errorf("expected 0.3645, got %v", cor)
	}
}

func TestStepMemoryless(t *testing.T) {
	ar := NewArea("A", 2, "", ReadoutNone)
	ar.Params.Dt.Tau = 0.5
	ar.Params.Dt.Dt = 0.5
	ar.Params.Learn.LearnJ = false
	if err := ar.Build(2); err != nil {
		t.Fatal(err)
	}
	ar.J.Set(0, 1, 2)
	ar.X0.SetVec(1, 0.3)
	ar.InitState()
	ar.DriveFmInput(mat.NewVecDense(2, []float64{0.1, -0.2}))
	if err := ar.Step(); err != nil {
		t.Fatal(err)
	}
	// dt/tau = 1: x = J r + drive
	cor := []float64{2*math.Tanh(0.3) + 0.1, -0.2}
	for i := range cor {
		if dif := math.Abs(ar.X.AtVec(i) - cor[i]); dif > difTol {
			t.Errorf("memoryless err: idx: %d x: %v cor: %v\n", i, ar.X.AtVec(i), cor[i])
		}
	}
}

func TestDriveGain(t *testing.T) {
	ar := NewArea("A", 3, "", ReadoutNone)
	if err := ar.Build(3); err != nil {
		t.Fatal(err)
	}
	ar.Gain = mat.NewVecDense(3, []float64{1, -0.5, 2})
	ar.DriveFmInput(mat.NewVecDense(3, []float64{1, 1, 1}))
	cor := mat.NewVecDense(3, []float64{1, -0.5, 2})
	if !mat.Equal(ar.Drive, cor) {
		t.Errorf("drive: %v", mat.Formatted(ar.Drive.T()))
	}
}

func TestInitWeights(t *testing.T) {
	ar := NewArea("A", 50, "", ReadoutWeights)
	ar.Params.Init.Sparsity = 0.2
	if err := ar.Build(4); err != nil {
		t.Fatal(err)
	}
	if ar.State != Uninitialized {
		t.Errorf("state after Build: %v", ar.State)
	}
	ar.InitWeights(rand.NewSource(3))
	if ar.State != Training {
		t.Errorf("state after InitWeights: %v", ar.State)
	}
	nz := 0
	for i := 0; i < 50; i++ {
		for j := 0; j < 50; j++ {
			if ar.J.At(i, j) != 0 {
				nz++
			}
		}
		if ar.RLS.P.At(i, i) != 1/ar.Params.Learn.RLS.Alpha {
			t.Errorf("P(0) diag: %v", ar.RLS.P.At(i, i))
		}
		if math.Abs(ar.R.AtVec(i)-math.Tanh(ar.X0.AtVec(i))) > difTol {
			t.Errorf("rate not tanh of X0 at %d", i)
		}
	}
	frac := float64(nz) / 2500
	if frac < 0.1 || frac > 0.3 {
		t.Errorf("sparsity: fraction nonzero %v, expected about 0.2", frac)
	}
	if mat.Norm(ar.W, 1) != 0 {
		t.Errorf("readout not zero after init")
	}
	if ar.Gain == nil {
		t.Fatalf("gain not sampled")
	}
	for i := 0; i < 50; i++ {
		if g := ar.Gain.AtVec(i); g < -1 || g > 1 {
			t.Errorf("gain out of range: %v", g)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	ar := NewArea("A", 3, "", ReadoutRate)
	if err := ar.Build(4); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("rate readout with wrong dim: expected ErrDimensionMismatch, got %v", err)
	}
	ar = NewArea("A", 3, "", ReadoutWeights)
	ar.Params.Dt.Tau = 0
	if err := ar.Build(3); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Tau = 0: expected ErrConfiguration, got %v", err)
	}
	ar = NewArea("A", 3, "", ReadoutWeights)
	ar.Params.Learn.RLS.Alpha = -1
	if err := ar.Build(3); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Alpha < 0: expected ErrConfiguration, got %v", err)
	}
	ar = NewArea("A", 0, "", ReadoutWeights)
	if err := ar.Build(3); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("N = 0: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestLearnOwnGain(t *testing.T) {
	ar := NewArea("A", 3, "", ReadoutWeights)
	if err := ar.Build(2); err != nil {
		t.Fatal(err)
	}
	ar.Params.Learn.LearnJ = false
	ar.ErrSrc = ar
	ar.InitWeights(rand.NewSource(1))
	ar.R.CopyVec(mat.NewVecDense(3, []float64{0.5, -0.5, 0.25}))
	tgt := mat.NewVecDense(2, []float64{1, -1})
	if err := ar.Output(tgt); err != nil {
		t.Fatal(err)
	}
	if err := ar.Learn(); err != nil {
		t.Fatal(err)
	}
	// W starts at 0, so W = -c k e' with k = r (P = I), gain = |r|^2
	gain := 0.25 + 0.25 + 0.0625
	c := 1 / (1 + gain)
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			cor := -c * ar.R.AtVec(i) * (-tgt.AtVec(j))
			if dif := math.Abs(ar.W.At(i, j) - cor); dif > difTol {
				t.Errorf("W err: %d,%d: %v cor: %v\n", i, j, ar.W.At(i, j), cor)
			}
		}
	}
	if dif := math.Abs(ar.RLS.C - c); dif > difTol {
		t.Errorf("c: %v cor: %v", ar.RLS.C, c)
	}
	// after one update the output moves toward the target
	if err := ar.Output(tgt); err != nil {
		t.Fatal(err)
	}
	if mat.Norm(ar.Err, 2) >= mat.Norm(tgt, 2) {
		t.Errorf("error did not decrease: %v", mat.Norm(ar.Err, 2))
	}

	ar.Freeze()
	w := mat.DenseCopyOf(ar.W)
	if err := ar.Learn(); err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(w, ar.W) {
		t.Errorf("frozen area learned")
	}
}
