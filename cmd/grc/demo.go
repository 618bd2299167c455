package main

import "github.com/gruelang/grue/ir"

// demoProgram builds the IR for the "Hello" scenario by hand: an init
// routine that prints a greeting and quits, a lone player object, and no
// grammar. Useful as a smoke test for the codegen core without a real
// Grue frontend attached.
func demoProgram() *ir.Program {
	const (
		initFn ir.Id = 1
		hello  ir.Id = 100
	)

	player := &ir.Object{
		ID:        ir.PlayerObjectID,
		ShortName: "yourself",
	}

	init := &ir.Function{
		ID:        initFn,
		Name:      "init",
		NumLocals: 0,
		Body: []ir.Instruction{
			{Op: ir.OpPrint, String: hello},
			{Op: ir.OpNewline},
			{Op: ir.OpSystem, Sys: ir.SysQuit},
		},
	}

	return &ir.Program{
		Functions:    []*ir.Function{init},
		Objects:      []*ir.Object{player},
		Strings:      []*ir.StringLiteral{{ID: hello, Text: "Hello"}},
		Grammar:      nil,
		InitFunction: initFn,
	}
}
