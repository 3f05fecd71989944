// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package signal

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = 1.0e-12

func TestSine(t *testing.T) {
	m := Sine(2, 5, 1, 0.25, math.Pi/2)
	cor := [][]float64{
		{0, 1, 0, -1, 0},
		{1, 0, -1, 0, 1},
	}
	for i := range cor {
		for j := range cor[i] {
			if dif := math.Abs(m.At(i, j) - cor[i][j]); dif > difTol {
				t.Errorf("Sine err: i: %d t: %d v: %v cor: %v\n", i, j, m.At(i, j), cor[i][j])
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{-1, 1, 3, 0})
	Normalize(m)
	cor := mat.NewDense(2, 2, []float64{0, 0.5, 1, 0.25})
	if !mat.EqualApprox(m, cor, difTol) {
		t.Errorf("Normalize: %v", mat.Formatted(m))
	}

	cst := mat.NewDense(1, 3, []float64{2, 2, 2})
	Normalize(cst)
	if cst.At(0, 1) != 2 {
		t.Errorf("constant array changed: %v", mat.Formatted(cst))
	}
}

func TestDownsample(t *testing.T) {
	m := mat.NewDense(1, 7, []float64{0, 1, 2, 3, 4, 5, 6})
	d := Downsample(m, 3)
	cor := mat.NewDense(1, 3, []float64{0, 3, 6})
	if !mat.Equal(d, cor) {
		t.Errorf("Downsample: %v", mat.Formatted(d))
	}
}

func TestThreshold(t *testing.T) {
	m := mat.NewDense(1, 4, []float64{0.001, 0.02, 0.5, -1})
	Threshold(m, 0.01)
	cor := mat.NewDense(1, 4, []float64{0, 1, 1, 0})
	if !mat.Equal(m, cor) {
		t.Errorf("Threshold: %v", mat.Formatted(m))
	}
}

func TestWhiteNoise(t *testing.T) {
	wp := WhiteNoiseParams{}
	wp.Defaults()
	a := WhiteNoise(3, 50, &wp, rand.NewSource(5))
	b := WhiteNoise(3, 50, &wp, rand.NewSource(5))
	if !mat.Equal(a, b) {
		t.Errorf("WhiteNoise not deterministic for same seed")
	}
	for i := 0; i < 3; i++ {
		if dif := math.Abs(a.At(i, 0) - wp.Amp*wp.Start); dif > difTol {
			t.Errorf("WhiteNoise start: %v", a.At(i, 0))
		}
	}
	c := WhiteNoise(3, 50, &wp, rand.NewSource(6))
	if mat.Equal(a, c) {
		t.Errorf("WhiteNoise identical for different seeds")
	}
}
