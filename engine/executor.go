// Package engine executes a parsed instruction against a dataset:
// filter → transform → aggregation → dispatch.
package engine

import (
	"context"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
	"github.com/spektr-org/charta/render"
)

// ============================================================================
// EXECUTOR — the per-instruction pipeline
// ============================================================================
// Entry point: Execute(ctx, inst, data, opts...)
//
// Pipeline:
//   1. Validate the instruction against the dataset columns
//   2. Filter (conditions, then limit)
//   3. Transform (group / pivot / melt)
//   4. Aggregate by the chart's category axis
//   5. Dispatch to the renderer for the chart kind, or to the fallback
//      renderer when validation found a schema problem
//
// Stages 2-4 never fail: problems become warnings and the stage passes its
// input through. Only validation (a missing column) and dispatch can end an
// instruction in StateFailed. The input dataset is never modified.
// ============================================================================

// Execute runs inst against data.
//
// Options:
//   - WithLogger(l): pipeline logging (default slog.Default())
//   - WithHistogramBins(n): default histogram bins
//   - WithDispatcher(d): custom renderers
func Execute(ctx context.Context, inst *instruction.Instruction, data *dataset.Dataset, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)
	res := &Result{Trace: []State{StateReceived}}
	if inst == nil {
		err := &errs.SchemaError{Reason: "no instruction"}
		res.enter(StateFailed)
		return res, err
	}
	res.InstructionID = inst.ID.String()
	log := cfg.Logger.With("instruction_id", res.InstructionID)

	kind := instruction.ChartKind("")
	if inst.Chart != nil {
		kind = inst.Chart.Kind()
	}
	log.Info("charta: executing instruction", "chart", kind, "rows", data.Len(), "columns", len(data.Columns()))

	// ── 1. validate ──
	var fallbackReason error
	if err := instruction.Validate(inst, data.Columns()); err != nil {
		if errs.IsMissingColumn(err) || !errs.IsSchema(err) {
			log.Warn("charta: instruction rejected", "stage", StageValidate, "error", err)
			res.enter(StateFailed)
			return res, err
		}
		fallbackReason = err
		res.warn(StageValidate, err)
		log.Warn("charta: falling back to heuristic chart", "stage", StageValidate, "reason", err)
	} else {
		res.enter(StateValidated)
	}

	// ── 2-4. reshape ──
	current := data
	stages := []struct {
		name  string
		state State
		run   func(*dataset.Dataset) (*dataset.Dataset, []Warning)
	}{
		{StageFilter, StateFiltered, func(d *dataset.Dataset) (*dataset.Dataset, []Warning) {
			return ApplyFilter(d, inst.Filter)
		}},
		{StageTransform, StateTransformed, func(d *dataset.Dataset) (*dataset.Dataset, []Warning) {
			out, err := ApplyTransform(d, inst.Transform)
			return out, single(StageTransform, err)
		}},
		{StageAggregation, StateAggregated, func(d *dataset.Dataset) (*dataset.Dataset, []Warning) {
			out, err := ApplyAggregation(d, inst.Aggregation, inst.Chart)
			return out, single(StageAggregation, err)
		}},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			res.enter(StateFailed)
			return res, err
		}
		out, warnings := st.run(current)
		if out.Len() == 0 && current.Len() > 0 {
			warnings = append(warnings, Warning{Stage: st.name, Err: &errs.EmptyResultError{Stage: st.name}})
			out = current
		}
		for _, w := range warnings {
			log.Warn("charta: stage degraded", "stage", w.Stage, "error", w.Err)
		}
		log.Debug("charta: stage done", "stage", st.name, "rows_in", current.Len(), "rows_out", out.Len())
		res.Warnings = append(res.Warnings, warnings...)
		current = out
		res.enter(st.state)
	}
	res.Data = current

	// ── 5. dispatch ──
	if err := ctx.Err(); err != nil {
		res.enter(StateFailed)
		return res, err
	}
	res.enter(StateDispatched)
	var (
		spec *render.Spec
		err  error
	)
	if fallbackReason != nil {
		spec, err = cfg.Dispatcher.Fallback(inst, current, fallbackReason)
		res.Fallback = err == nil
	} else {
		spec, err = cfg.Dispatcher.Dispatch(inst, current)
	}
	if err != nil {
		log.Warn("charta: dispatch failed", "stage", StageDispatch, "error", err)
		res.enter(StateFailed)
		return res, err
	}

	res.Spec = spec
	res.enter(StateRendered)
	log.Info("charta: instruction rendered", "kind", spec.Kind, "rows", current.Len(), "fallback", res.Fallback, "warnings", len(res.Warnings))
	return res, nil
}

func single(stage string, err error) []Warning {
	if err == nil {
		return nil
	}
	return []Warning{{Stage: stage, Err: err}}
}
