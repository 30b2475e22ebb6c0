package engine

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/render"
)

// ============================================================================
// ENGINE TYPES — pipeline states, warnings, result
// ============================================================================

// Stage names, used in warnings and log lines.
const (
	StageParse       = "parse"
	StageValidate    = "validate"
	StageFilter      = "filter"
	StageLimit       = "limit"
	StageTransform   = "transform"
	StageAggregation = "aggregation"
	StageDispatch    = "dispatch"
)

// State is a step of the per-instruction state machine:
// Received → Validated → Filtered → Transformed → Aggregated → Dispatched →
// Rendered | Failed.
type State string

const (
	StateReceived    State = "received"
	StateValidated   State = "validated"
	StateFiltered    State = "filtered"
	StateTransformed State = "transformed"
	StateAggregated  State = "aggregated"
	StateDispatched  State = "dispatched"
	StateRendered    State = "rendered"
	StateFailed      State = "failed"
)

// Warning is a recoverable degradation: the stage kept going with a
// fallback result.
type Warning struct {
	Stage string
	Err   error
}

func (w Warning) Error() string { return w.Stage + ": " + w.Err.Error() }

func (w Warning) Unwrap() error { return w.Err }

func (w Warning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Stage   string `json:"stage"`
		Message string `json:"message"`
	}{w.Stage, w.Err.Error()})
}

// EncodeMsgpack mirrors MarshalJSON for render.FormatMsgpack.
func (w Warning) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeMap(map[string]any{"stage": w.Stage, "message": w.Err.Error()})
}

// Result is the outcome of one instruction. On a terminal failure Spec is
// nil and Trace ends in StateFailed.
type Result struct {
	InstructionID string           `json:"instructionId"`
	Spec          *render.Spec     `json:"spec,omitempty"`
	Warnings      []Warning        `json:"warnings,omitempty"`
	Trace         []State          `json:"trace"`
	Fallback      bool             `json:"fallback"`
	Data          *dataset.Dataset `json:"-"` // resolved dataset handed to the dispatcher
}

func (r *Result) warn(stage string, err error) {
	if err != nil {
		r.Warnings = append(r.Warnings, Warning{Stage: stage, Err: err})
	}
}

func (r *Result) enter(s State) { r.Trace = append(r.Trace, s) }

// State is the last state the instruction reached.
func (r *Result) State() State {
	if len(r.Trace) == 0 {
		return StateReceived
	}
	return r.Trace[len(r.Trace)-1]
}
