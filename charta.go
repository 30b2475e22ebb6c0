// Package charta interprets visualization instructions against arbitrary
// tabular data.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/charta/loader"
//	    "github.com/spektr-org/charta/session"
//	    "github.com/spektr-org/charta/translator"
//	)
//
//	data, err := loader.OpenFile("sales.csv.gz")
//	tr, err := translator.New(translator.DefaultGeminiConfig(apiKey))
//	reply, err := session.New(data, tr).Visualize(ctx, "revenue by region")
//
// An external language model turns the request into an instruction
// document; everything after that is local. The instruction is parsed
// leniently (instruction), validated, then run through
// filter → transform → aggregation (engine) and dispatched to a chart
// renderer (render). Recoverable problems come back as warnings; only an
// unreachable instruction source or an instruction that cannot be rendered
// fails the request.
package charta
