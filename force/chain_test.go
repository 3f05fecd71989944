// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"errors"
	"strings"
	"testing"

	"github.com/emer/force/signal"
	"gonum.org/v1/gonum/mat"
)

func testConfig(n int) *Config {
	cf := &Config{}
	cf.Defaults()
	cf.N = n
	cf.G = 1
	cf.Seed = 42
	return cf
}

func testSignals(t *testing.T, inDim, outDim, nt int) (*Signal, *Signal) {
	t.Helper()
	in, err := NewSignal("Input", signal.Sine(inDim, nt, 0.5, 0.1, 0.7))
	if err != nil {
		t.Fatal(err)
	}
	tg, err := NewSignal("Target", signal.Sine(outDim, nt, 0.2, 0.1, 0.3))
	if err != nil {
		t.Fatal(err)
	}
	return in, tg
}

func TestChainBuild(t *testing.T) {
	cf := testConfig(10)
	ch, err := NewBranchChain(cf, 3, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ch.Areas) != 4 || len(ch.Projs) != 3 {
		t.Fatalf("areas: %d projs: %d", len(ch.Areas), len(ch.Projs))
	}
	d := ch.AreaByName("D")
	if d.Up != ch.AreaByName("V2") {
		t.Errorf("D should be fed from V2, got %v", d.Up.Name)
	}
	if d.Prj.Name() != "V2ToD" {
		t.Errorf("projection name: %v", d.Prj.Name())
	}
	if ch.AreaByName("V1").ErrSrc != ch.AreaByName("V3") {
		t.Errorf("V1 should learn from V3 error")
	}
	if d.ErrSrc != d {
		t.Errorf("D should learn from its own error")
	}
	oas := ch.OutputAreas()
	if len(oas) != 2 || oas[0].Name != "V3" || oas[1].Name != "D" {
		t.Errorf("output areas wrong")
	}
	for _, ar := range ch.Areas {
		if ar.State != Training {
			t.Errorf("area %s state %v after init", ar.Name, ar.State)
		}
	}
	if !strings.Contains(ch.SizeReport(), "V2ToD") {
		t.Errorf("size report missing projection:\n%s", ch.SizeReport())
	}
}

func TestChainBuildErrors(t *testing.T) {
	cf := testConfig(10)
	if _, err := NewSeriesChain(cf, 3, 5, 10); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("input dim != N: expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := NewSeriesChain(cf, 3, 10, 4); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("LearnJ with target dim != N: expected ErrDimensionMismatch, got %v", err)
	}
	cf.LearnJ = false
	if _, err := NewSeriesChain(cf, 3, 10, 4); err != nil {
		t.Errorf("readout-only learning with target dim != N: %v", err)
	}
	for _, bad := range []func(cf *Config){
		func(cf *Config) { cf.Tau = 0 },
		func(cf *Config) { cf.Dt = -0.1 },
		func(cf *Config) { cf.Alpha = 0 },
		func(cf *Config) { cf.Sparsity = 0 },
	} {
		cf := testConfig(10)
		bad(cf)
		if _, err := NewSeriesChain(cf, 2, 10, 10); !errors.Is(err, ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	}

	ch := NewChain("Bad")
	ch.AddArea("B", 10, "A", ReadoutWeights)
	ch.AddArea("A", 10, "", ReadoutNone)
	if err := ch.Build(10, 10); !errors.Is(err, ErrConfiguration) {
		t.Errorf("out of order areas: expected ErrConfiguration, got %v", err)
	}
	ch = NewChain("Dup")
	ch.AddArea("A", 10, "", ReadoutWeights)
	ch.AddArea("A", 10, "A", ReadoutWeights)
	if err := ch.Build(10, 10); !errors.Is(err, ErrConfiguration) {
		t.Errorf("duplicate names: expected ErrConfiguration, got %v", err)
	}
	ch = NewChain("Unbuilt")
	ch.AddArea("A", 10, "", ReadoutWeights)
	if err := ch.Init(1); !errors.Is(err, ErrState) {
		t.Errorf("init before build: expected ErrState, got %v", err)
	}
}

// Drives of downstream areas use the upstream rate of the previous step.
func TestCycleCausal(t *testing.T) {
	cf := testConfig(8)
	ch, err := NewSeriesChain(cf, 3, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	in, _ := testSignals(t, 8, 8, 5)
	ch.InitState()
	for st := 0; st < 5; st++ {
		prev := make(map[string]*mat.VecDense)
		for _, ar := range ch.Areas {
			prev[ar.Name] = mat.VecDenseCopyOf(ar.R)
		}
		if err := ch.Cycle(in.Frame(st)); err != nil {
			t.Fatal(err)
		}
		for _, ar := range ch.Areas[1:] {
			cor := mat.NewVecDense(ar.N, nil)
			cor.MulVec(ar.Prj.C, prev[ar.Up.Name])
			cor.MulElemVec(ar.Gain, cor)
			if !mat.EqualApprox(cor, ar.Drive, difTol) {
				t.Errorf("step %d area %s: drive does not match previous upstream rate", st, ar.Name)
			}
		}
	}
}

// Perturbing input frame k first changes area i (1-based) at step k+i.
func TestPerturbPropagation(t *testing.T) {
	cf := testConfig(8)
	cf.LearnJ = false
	ch, err := NewSeriesChain(cf, 3, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	nt := 12
	in, tg := testSignals(t, 8, 8, nt)
	base, err := Evaluate(ch, in, tg, true)
	if err != nil {
		t.Fatal(err)
	}
	k := 4
	pdat := mat.DenseCopyOf(in.Data)
	for i := 0; i < 8; i++ {
		pdat.Set(i, k, pdat.At(i, k)+1)
	}
	pin, _ := NewSignal("Perturbed", pdat)
	pert, err := Evaluate(ch, pin, tg, true)
	if err != nil {
		t.Fatal(err)
	}
	// rate column c holds the rate after step c+1, driven by input frame c
	for ai, ar := range ch.Areas {
		first := k + ai // column of step k+1+ai
		br := base.Rates[ar.Name]
		pr := pert.Rates[ar.Name]
		for c := 0; c < nt; c++ {
			same := mat.Equal(br.ColView(c), pr.ColView(c))
			if c < first && !same {
				t.Errorf("area %s changed at column %d before %d", ar.Name, c, first)
			}
			if c == first && same {
				t.Errorf("area %s unchanged at column %d", ar.Name, c)
			}
		}
	}
}

func TestInitDeterministic(t *testing.T) {
	cf := testConfig(10)
	a, err := NewBranchChain(cf, 2, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBranchChain(cf, 2, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i, ar := range a.Areas {
		br := b.Areas[i]
		if !mat.Equal(ar.J, br.J) || !mat.Equal(ar.X0, br.X0) || !mat.Equal(ar.Gain, br.Gain) {
			t.Errorf("area %s differs for same seed", ar.Name)
		}
		if ar.Prj != nil && !mat.Equal(ar.Prj.C, br.Prj.C) {
			t.Errorf("projection %s differs for same seed", ar.Prj.Name())
		}
	}
	if err := b.Init(cf.Seed + 1); err != nil {
		t.Fatal(err)
	}
	if mat.Equal(a.Areas[0].J, b.Areas[0].J) {
		t.Errorf("different seeds gave same weights")
	}
}

func TestThreadsMatch(t *testing.T) {
	cf := testConfig(10)
	in, tg := testSignals(t, 10, 10, 30)
	run := func(nthr int) *Chain {
		cf.NThreads = nthr
		ch, err := NewBranchChain(cf, 3, 10, 10)
		if err != nil {
			t.Fatal(err)
		}
		tr, err := NewTrainer(ch, in, tg, 3)
		if err != nil {
			t.Fatal(err)
		}
		if err := tr.Train(); err != nil {
			t.Fatal(err)
		}
		return ch
	}
	one := run(1)
	thr := run(3)
	if thr.NThreads != 3 {
		t.Errorf("NThreads: %d", thr.NThreads)
	}
	for i, ar := range one.Areas {
		tr := thr.Areas[i]
		if !mat.Equal(ar.J, tr.J) || !mat.Equal(ar.RLS.P, tr.RLS.P) {
			t.Errorf("area %s differs between 1 and 3 threads", ar.Name)
		}
		if ar.W != nil && !mat.Equal(ar.W, tr.W) {
			t.Errorf("area %s readout differs between 1 and 3 threads", ar.Name)
		}
	}
	rep := thr.TimerReport()
	for _, fn := range []string{"Drive", "Step", "Output", "Learn"} {
		if !strings.Contains(rep, fn) {
			t.Errorf("timer report missing %s:\n%s", fn, rep)
		}
	}
}

func TestCheckState(t *testing.T) {
	cf := testConfig(6)
	ch, err := NewSeriesChain(cf, 2, 6, 6)
	if err != nil {
		t.Fatal(err)
	}
	if err := ch.CheckState(Training); err != nil {
		t.Error(err)
	}
	ch.Freeze()
	if err := ch.CheckState(Training); !errors.Is(err, ErrState) {
		t.Errorf("expected ErrState, got %v", err)
	}
	if ch.Areas[0].State != Frozen {
		t.Errorf("state: %v", ch.Areas[0].State)
	}
}
