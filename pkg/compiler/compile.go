package compiler

import "fmt"

// Result is the output of a successful compilation.
type Result struct {
	VHDL     string
	Program  *Node
	Context  *Context
	Warnings []*Error
}

// Compile runs the whole pipeline over src: parse, optional pruning to
// opts.Top, then VHDL generation. A fatal parse fault is returned as a
// *Error; warnings are collected on the result.
func Compile(src string, opts Options) (*Result, error) {
	ctx := NewContext()

	prog, err := Parse(src, ctx)
	if err != nil {
		return nil, err
	}

	if opts.Top != "" {
		prog, err = Prune(prog, opts.Top)
		if err != nil {
			return nil, fmt.Errorf("prune: %w", err)
		}
	}

	vhdl, err := Generate(prog, ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	return &Result{
		VHDL:     vhdl,
		Program:  prog,
		Context:  ctx,
		Warnings: ctx.Warnings,
	}, nil
}
