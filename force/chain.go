// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/emer/emergent/v2/timer"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Projection is a fixed random feedforward matrix carrying the rate of
// the sending area to the drive of the receiving area.  It is never learned.
type Projection struct {

	// sending (upstream) area
	Send *Area

	// receiving (downstream) area
	Recv *Area

	// weights, Recv.N x Send.N
	C *mat.Dense `view:"-"`
}

// Name returns Send + "To" + Recv, as in emergent projection names
func (pj *Projection) Name() string {
	return pj.Send.Name + "To" + pj.Recv.Name
}

// ProjParams control the random initialization of the feedforward projections.
type ProjParams struct {

	// scale: weights are normal with std Scale / sqrt(Send.N)
	Scale float64 `def:"1" min:"0"`

	// probability that a feedforward connection exists
	Sparsity float64 `def:"1" min:"0" max:"1"`
}

func (pp *ProjParams) Defaults() {
	pp.Scale = 1
	pp.Sparsity = 1
}

func (pp *ProjParams) Validate() error {
	if !(pp.Sparsity > 0 && pp.Sparsity <= 1) {
		return cfgErr("projection Sparsity must be in (0,1], got %g", pp.Sparsity)
	}
	if pp.Scale < 0 {
		return cfgErr("projection Scale must be >= 0, got %g", pp.Scale)
	}
	return nil
}

// Chain is a feedforward pipeline of Areas: input areas are driven by
// the external signal and every other area by its upstream area's rate
// through a Projection.  Several areas can share the same upstream area
// (parallel branches).  Areas must be added in feedforward order.
type Chain struct {

	// name of the chain
	Name string

	// areas in feedforward order
	Areas []*Area

	// map of name to area, made during Build
	AreaMap map[string]*Area `view:"-"`

	// feedforward projections, one per non-input area, made during Build
	Projs []*Projection `view:"-"`

	// feedforward projection parameters
	Prj ProjParams `view:"inline"`

	// external input dimension, set in Build
	InDim int `inactive:"+"`

	// target dimension, set in Build
	OutDim int `inactive:"+"`

	// seed used for the last Init
	Seed uint64 `inactive:"+"`

	// number of parallel threads (go routines) -- computed from the area Thr settings during Build
	NThreads int `inactive:"+"`

	// areas per thread, made during Build
	ThrAreas [][]*Area `view:"-"`

	// timers for each major function (step of processing)
	FunTimes map[string]*timer.Time `view:"-"`

	// wait group for synchronizing threaded area calls
	WaitGp sync.WaitGroup `view:"-"`
}

// NewChain returns a new Chain with default projection parameters.
func NewChain(name string) *Chain {
	ch := &Chain{Name: name}
	ch.Prj.Defaults()
	return ch
}

// AddArea adds a new area of n units driven by area from (empty = external
// input) with given readout type, and returns it.
func (ch *Chain) AddArea(name string, n int, from string, readout ReadoutTypes) *Area {
	ar := NewArea(name, n, from, readout)
	ch.Areas = append(ch.Areas, ar)
	return ar
}

// AreaByName returns the area of given name, or nil
func (ch *Chain) AreaByName(name string) *Area {
	if ch.AreaMap != nil {
		return ch.AreaMap[name]
	}
	for _, ar := range ch.Areas {
		if ar.Name == name {
			return ar
		}
	}
	return nil
}

// OutputAreas returns the areas that produce their own output, in chain order
func (ch *Chain) OutputAreas() []*Area {
	var oa []*Area
	for _, ar := range ch.Areas {
		if ar.HasOutput() {
			oa = append(oa, ar)
		}
	}
	return oa
}

// Build checks the structure and sizes of the chain and allocates all
// areas and projections for given input and target dimensions.
// All dimension and configuration errors are reported here, before
// any simulation work.  Areas are left Uninitialized.
func (ch *Chain) Build(inDim, outDim int) error {
	if len(ch.Areas) == 0 {
		return cfgErr("chain %s has no areas", ch.Name)
	}
	if inDim <= 0 || outDim <= 0 {
		return dimErr("chain %s: input dim %d and target dim %d must be > 0", ch.Name, inDim, outDim)
	}
	if err := ch.Prj.Validate(); err != nil {
		return err
	}
	ch.InDim = inDim
	ch.OutDim = outDim
	ch.AreaMap = make(map[string]*Area, len(ch.Areas))
	ch.Projs = nil
	for _, ar := range ch.Areas {
		if _, has := ch.AreaMap[ar.Name]; has {
			return cfgErr("chain %s: duplicate area name %s", ch.Name, ar.Name)
		}
		if err := ar.Build(outDim); err != nil {
			return err
		}
		ar.Up = nil
		ar.Prj = nil
		ar.ErrSrc = nil
		if ar.IsInput() {
			if ar.N != inDim {
				return dimErr("input area %s: N %d != input dim %d", ar.Name, ar.N, inDim)
			}
		} else {
			up, ok := ch.AreaMap[ar.From]
			if !ok {
				return cfgErr("area %s: upstream area %s must be added before it", ar.Name, ar.From)
			}
			pj := &Projection{Send: up, Recv: ar, C: mat.NewDense(ar.N, up.N, nil)}
			ar.Up = up
			ar.Prj = pj
			ch.Projs = append(ch.Projs, pj)
		}
		ch.AreaMap[ar.Name] = ar
	}
	for _, ar := range ch.Areas {
		if err := ch.buildErrSrc(ar); err != nil {
			return err
		}
	}
	ch.BuildThreads()
	return nil
}

// buildErrSrc resolves the area whose error drives learning in ar
func (ch *Chain) buildErrSrc(ar *Area) error {
	switch {
	case ar.HasOutput():
		ar.ErrSrc = ar
	case ar.ErrorFrom != "":
		es, ok := ch.AreaMap[ar.ErrorFrom]
		if !ok {
			return cfgErr("area %s: ErrorFrom area %s not found", ar.Name, ar.ErrorFrom)
		}
		if !es.HasOutput() {
			return cfgErr("area %s: ErrorFrom area %s has no readout", ar.Name, es.Name)
		}
		ar.ErrSrc = es
	default:
		ar.ErrSrc = ch.firstOutputBelow(ar)
	}
	if !ar.Params.Learn.LearnJ {
		return nil
	}
	if ar.ErrSrc == nil {
		return cfgErr("area %s learns J but has no readout and no downstream output area", ar.Name)
	}
	if ar.ErrSrc.OutDim != ar.N {
		return dimErr("area %s learns J from the %d-dim error of %s but has N = %d", ar.Name, ar.ErrSrc.OutDim, ar.ErrSrc.Name, ar.N)
	}
	return nil
}

// firstOutputBelow returns the first area in chain order that has an output
// and is downstream of ar, or nil.
func (ch *Chain) firstOutputBelow(ar *Area) *Area {
	for _, dn := range ch.Areas {
		if !dn.HasOutput() {
			continue
		}
		for up := dn.Up; up != nil; up = up.Up {
			if up == ar {
				return dn
			}
		}
	}
	return nil
}

// Init samples all weights, initial states and drive gains from given seed,
// in chain order: for each area J, X0, Gain, then its feedforward projection.
// P is reset to I / Alpha and readouts to zero.  All areas go to Training.
// The same seed always produces the same chain.
func (ch *Chain) Init(seed uint64) error {
	if ch.AreaMap == nil {
		return fmt.Errorf("%w: chain %s must be built before Init", ErrState, ch.Name)
	}
	ch.Seed = seed
	src := rand.NewSource(seed)
	for _, ar := range ch.Areas {
		ar.InitWeights(src)
		if ar.Prj != nil {
			RandSparseNormal(ar.Prj.C, ch.Prj.Scale/math.Sqrt(float64(ar.Up.N)), ch.Prj.Sparsity, src)
		}
	}
	return nil
}

// InitState restores all area states to their initial conditions.
func (ch *Chain) InitState() {
	for _, ar := range ch.Areas {
		ar.InitState()
	}
}

// Freeze moves all areas to the Frozen state.
func (ch *Chain) Freeze() {
	for _, ar := range ch.Areas {
		ar.Freeze()
	}
}

// CheckState returns an ErrState error unless all areas are in one of the given states.
func (ch *Chain) CheckState(ok ...States) error {
	for _, ar := range ch.Areas {
		good := false
		for _, st := range ok {
			if ar.State == st {
				good = true
				break
			}
		}
		if !good {
			return fmt.Errorf("%w: area %s is %v", ErrState, ar.Name, ar.State)
		}
	}
	return nil
}

// Cycle runs one timestep of the state update: first the drive of every
// area is computed from the rates of the previous step (input frame for
// input areas), and only then are the areas stepped.  No drive depends on
// a rate computed in the same step.
func (ch *Chain) Cycle(in mat.Vector) error {
	err := ch.ThrAreaFun(func(ar *Area) error {
		if ar.IsInput() {
			ar.DriveFmInput(in)
		} else {
			ar.DriveFmUp()
		}
		return nil
	}, "Drive")
	if err != nil {
		return err
	}
	return ch.ThrAreaFun(func(ar *Area) error { return ar.Step() }, "Step")
}

// Outputs computes the outputs and errors of all output areas against target.
func (ch *Chain) Outputs(target mat.Vector) error {
	return ch.ThrAreaFun(func(ar *Area) error { return ar.Output(target) }, "Output")
}

// Learn runs the RLS update in every Training area.  Must be called after
// Outputs, as areas without readout use a downstream area's error.
func (ch *Chain) Learn() error {
	return ch.ThrAreaFun(func(ar *Area) error { return ar.Learn() }, "Learn")
}

//////////////////////////////////////////////////////////////////////////////////////
//  Threading

// BuildThreads constructs the area thread allocation based on the Thr setting in the areas
func (ch *Chain) BuildThreads() {
	nthr := 0
	for _, ar := range ch.Areas {
		nthr = max(nthr, ar.Thr)
	}
	ch.NThreads = nthr + 1
	ch.ThrAreas = make([][]*Area, ch.NThreads)
	for _, ar := range ch.Areas {
		ch.ThrAreas[ar.Thr] = append(ch.ThrAreas[ar.Thr], ar)
	}
	for th := 0; th < ch.NThreads; th++ {
		if len(ch.ThrAreas[th]) == 0 {
			log.Printf("Chain BuildThreads: Chain %v has no areas for thread: %v\n", ch.Name, th)
		}
	}
	ch.FunTimes = make(map[string]*timer.Time)
}

// ThreadAlloc allocates areas round-robin to given number of threads
// and rebuilds the thread lists.  Every step within a phase only reads
// values from the previous phase, so any allocation is safe.
func (ch *Chain) ThreadAlloc(nThread int) {
	nThread = max(1, min(nThread, len(ch.Areas)))
	for i, ar := range ch.Areas {
		ar.Thr = i % nThread
	}
	ch.BuildThreads()
}

// ThrAreaFun calls function on each area, using go routines if NThreads > 1
// and otherwise just iterating over areas in order.  Returns the error of
// the first failing area in chain order.
func (ch *Chain) ThrAreaFun(fun func(ar *Area) error, funame string) error {
	ch.FunTimerStart(funame)
	defer ch.FunTimerStop(funame)
	if ch.NThreads <= 1 {
		for _, ar := range ch.Areas {
			if err := fun(ar); err != nil {
				return err
			}
		}
		return nil
	}
	errs := make(map[*Area]error)
	var mu sync.Mutex
	for th := 0; th < ch.NThreads; th++ {
		ch.WaitGp.Add(1)
		go func(thas []*Area) {
			defer ch.WaitGp.Done()
			for _, ar := range thas {
				if err := fun(ar); err != nil {
					mu.Lock()
					errs[ar] = err
					mu.Unlock()
					return
				}
			}
		}(ch.ThrAreas[th])
	}
	ch.WaitGp.Wait()
	for _, ar := range ch.Areas {
		if err, has := errs[ar]; has {
			return err
		}
	}
	return nil
}

// FunTimerStart starts function timer for given function name -- ensures creation of timer
func (ch *Chain) FunTimerStart(fun string) {
	if ch.FunTimes == nil {
		ch.FunTimes = make(map[string]*timer.Time)
	}
	ft, ok := ch.FunTimes[fun]
	if !ok {
		ft = &timer.Time{}
		ch.FunTimes[fun] = ft
	}
	ft.Start()
}

// FunTimerStop stops function timer -- timer must already exist
func (ch *Chain) FunTimerStop(fun string) {
	ft := ch.FunTimes[fun]
	ft.Stop()
}

// TimerReport returns a report of the amount of time spent in each function
func (ch *Chain) TimerReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TimerReport: %v, NThreads: %v\n", ch.Name, ch.NThreads)
	fmt.Fprintf(&b, "\t%13s \t%7s\t%7s\n", "Function Name", "Secs", "Pct")
	fnms := make([]string, 0, len(ch.FunTimes))
	for k := range ch.FunTimes {
		fnms = append(fnms, k)
	}
	sort.Strings(fnms)
	secs := make([]float64, len(fnms))
	tot := 0.0
	for i, fn := range fnms {
		secs[i] = ch.FunTimes[fn].TotalSecs()
		tot += secs[i]
	}
	for i, fn := range fnms {
		pct := 0.0
		if tot > 0 {
			pct = 100 * (secs[i] / tot)
		}
		fmt.Fprintf(&b, "\t%13s \t%7.3f\t%7.1f\n", fn, secs[i], pct)
	}
	fmt.Fprintf(&b, "\t%13s \t%7.3f\n", "Total", tot)
	return b.String()
}

// SizeReport returns a string reporting the size of each area and projection
// in the chain, and total memory footprint.
func (ch *Chain) SizeReport() string {
	var b strings.Builder
	units := 0
	mem := 0
	for _, ar := range ch.Areas {
		amem := ar.MemBytes()
		units += ar.N
		mem += amem
		fmt.Fprintf(&b, "%14s:\t Units: %d\t Readout: %v\t Mem: %v\n", ar.Name, ar.N, ar.Readout, (datasize.ByteSize)(amem).HumanReadable())
		if ar.Prj != nil {
			pmem := ar.N * ar.Up.N * 8
			mem += pmem
			fmt.Fprintf(&b, "\t%14s:\t Mem: %v\n", ar.Prj.Name(), (datasize.ByteSize)(pmem).HumanReadable())
		}
	}
	fmt.Fprintf(&b, "\n%14s:\t Units: %d\t Mem: %v\n", ch.Name, units, (datasize.ByteSize)(mem).HumanReadable())
	return b.String()
}
