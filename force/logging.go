// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"strconv"

	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/etensor"
)

// LogPrec is precision for saving float values in logs
const LogPrec = 4

// ConfigEpochLog configures the epoch log table: one row per epoch,
// with PVar, SSE, MAE and MinEig columns for each output area.
func (tr *Trainer) ConfigEpochLog(dt *etable.Table) {
	dt.SetMetaData("name", tr.Chain.Name+"EpochLog")
	dt.SetMetaData("desc", "Record of training statistics per epoch")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", strconv.Itoa(LogPrec))

	sch := etable.Schema{
		{Name: "Epoch", Type: etensor.INT64, CellShape: nil, DimNames: nil},
	}
	for _, ar := range tr.Chain.OutputAreas() {
		sch = append(sch, etable.Column{Name: "PVar_" + ar.Name, Type: etensor.FLOAT64, CellShape: nil, DimNames: nil})
		sch = append(sch, etable.Column{Name: "SSE_" + ar.Name, Type: etensor.FLOAT64, CellShape: nil, DimNames: nil})
		sch = append(sch, etable.Column{Name: "MAE_" + ar.Name, Type: etensor.FLOAT64, CellShape: nil, DimNames: nil})
		sch = append(sch, etable.Column{Name: "MinEig_" + ar.Name, Type: etensor.FLOAT64, CellShape: nil, DimNames: nil})
	}
	dt.SetFromSchema(sch, 0)
}

// LogEpoch adds a row to the epoch log for the current epoch
func (tr *Trainer) LogEpoch(dt *etable.Table, stats []EpochStats) {
	row := dt.Rows
	dt.SetNumRows(row + 1)
	dt.SetCellFloat("Epoch", row, float64(tr.Epoch))
	for _, es := range stats {
		dt.SetCellFloat("PVar_"+es.Area, row, es.PVar)
		dt.SetCellFloat("SSE_"+es.Area, row, es.SSE)
		dt.SetCellFloat("MAE_"+es.Area, row, es.MAE)
		dt.SetCellFloat("MinEig_"+es.Area, row, es.MinEig)
	}
}

// ConfigOutputLog configures a per-timestep log of the evaluation of
// given chain: absolute error averaged over target dimensions for each
// output area.
func ConfigOutputLog(dt *etable.Table, ch *Chain) {
	dt.SetMetaData("name", ch.Name+"OutputLog")
	dt.SetMetaData("desc", "Record of evaluation error per timestep")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", strconv.Itoa(LogPrec))

	sch := etable.Schema{
		{Name: "Step", Type: etensor.INT64, CellShape: nil, DimNames: nil},
	}
	for _, ar := range ch.OutputAreas() {
		sch = append(sch, etable.Column{Name: "AbsErr_" + ar.Name, Type: etensor.FLOAT64, CellShape: nil, DimNames: nil})
	}
	dt.SetFromSchema(sch, 0)
}

// LogOutputs fills the output log from an evaluation result, one row per timestep.
func LogOutputs(dt *etable.Table, ch *Chain, res *EvalResult, target *Signal) {
	nt := target.Len()
	dt.SetNumRows(nt)
	for t := 0; t < nt; t++ {
		dt.SetCellFloat("Step", t, float64(t+1))
	}
	for _, ar := range ch.OutputAreas() {
		out := res.Outputs[ar.Name]
		col := "AbsErr_" + ar.Name
		for t := 0; t < nt; t++ {
			dt.SetCellFloat(col, t, MAE(target.Data.Slice(0, target.Dim(), t, t+1), out.Slice(0, ar.OutDim, t, t+1)))
		}
	}
}
