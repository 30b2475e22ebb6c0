package render

import (
	"fmt"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/instruction"
)

// ============================================================================
// RENDER DISPATCHER — chart kind → renderer
// ============================================================================

// Options tunes the built-in renderers.
type Options struct {
	DefaultBins int // histogram bins when the instruction names none
	SingleZoom  int // map zoom for a single point
	MultiZoom   int // map zoom for several points
	Pitch       int // map camera pitch
}

// DefaultOptions returns the built-in renderer settings.
func DefaultOptions() Options {
	return Options{
		DefaultBins: 30,
		SingleZoom:  13,
		MultiZoom:   11,
		Pitch:       30,
	}
}

// Request is what a renderer receives.
type Request struct {
	Instruction *instruction.Instruction
	Data        *dataset.Dataset
	Options     Options
}

// Renderer builds a Spec for one chart kind.
type Renderer interface {
	Render(req Request) (*Spec, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(req Request) (*Spec, error)

func (f RendererFunc) Render(req Request) (*Spec, error) { return f(req) }

// Dispatcher routes instructions to renderers by chart kind.
type Dispatcher struct {
	renderers map[instruction.ChartKind]Renderer
	opts      Options
}

// NewDispatcher returns a dispatcher with the built-in renderers registered.
// Zero-valued options fall back to DefaultOptions.
func NewDispatcher(opts Options) *Dispatcher {
	def := DefaultOptions()
	if opts.DefaultBins <= 0 {
		opts.DefaultBins = def.DefaultBins
	}
	if opts.SingleZoom <= 0 {
		opts.SingleZoom = def.SingleZoom
	}
	if opts.MultiZoom <= 0 {
		opts.MultiZoom = def.MultiZoom
	}
	if opts.Pitch <= 0 {
		opts.Pitch = def.Pitch
	}

	d := &Dispatcher{renderers: make(map[instruction.ChartKind]Renderer), opts: opts}
	xy := RendererFunc(renderXY)
	d.Register(instruction.Bar, xy)
	d.Register(instruction.Line, xy)
	d.Register(instruction.Scatter, xy)
	d.Register(instruction.Pie, RendererFunc(renderPie))
	d.Register(instruction.Histogram, RendererFunc(renderHistogram))
	d.Register(instruction.Map, RendererFunc(renderMap))
	return d
}

// Register installs or replaces the renderer for kind.
func (d *Dispatcher) Register(kind instruction.ChartKind, r Renderer) {
	d.renderers[kind] = r
}

// Options returns the renderer settings.
func (d *Dispatcher) Options() Options { return d.opts }

// Dispatch renders inst over data with the renderer for its chart kind.
func (d *Dispatcher) Dispatch(inst *instruction.Instruction, data *dataset.Dataset) (*Spec, error) {
	if inst == nil || inst.Chart == nil {
		return nil, &errs.SchemaError{Field: "chart_type", Reason: "missing"}
	}
	kind := inst.Chart.Kind()
	r, ok := d.renderers[kind]
	if !ok {
		return nil, &errs.SchemaError{Field: "chart_type", Reason: fmt.Sprintf("no renderer for %q", kind)}
	}
	spec, err := r.Render(Request{Instruction: inst, Data: data, Options: d.opts})
	if err != nil {
		return nil, err
	}
	finish(spec, inst, data)
	return spec, nil
}

// finish fills the fields every spec carries.
func finish(spec *Spec, inst *instruction.Instruction, data *dataset.Dataset) {
	if spec.Kind == "" && inst != nil && inst.Chart != nil {
		spec.Kind = inst.Chart.Kind()
	}
	if inst != nil {
		if spec.Title == "" {
			spec.Title = inst.Title
		}
		if spec.Description == "" {
			spec.Description = inst.Description
		}
		spec.InstructionID = inst.ID.String()
	}
	if spec.Title == "" {
		spec.Title = defaultTitle(spec)
	}
	if spec.Rows == nil && data != nil {
		spec.Columns = data.Columns()
		spec.Rows = data.Records()
	}
	if spec.Summary == "" {
		spec.Summary = summarize(spec)
	}
}
