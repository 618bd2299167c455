package zmachine_test

import (
	"bytes"
	"testing"

	"github.com/gruelang/grue/codegen"
	"github.com/gruelang/grue/ir"
	"github.com/gruelang/grue/zmachine"
)

func compileFixture(t *testing.T) []byte {
	t.Helper()

	const (
		initFn ir.Id = 1
		hello  ir.Id = 100
	)
	program := &ir.Program{
		Functions: []*ir.Function{{
			ID:   initFn,
			Name: "init",
			Body: []ir.Instruction{
				{Op: ir.OpPrint, String: hello},
				{Op: ir.OpNewline},
				{Op: ir.OpSystem, Sys: ir.SysQuit},
			},
		}},
		Objects:      []*ir.Object{{ID: ir.PlayerObjectID, ShortName: "yourself"}},
		Strings:      []*ir.StringLiteral{{ID: hello, Text: "Hello"}},
		InitFunction: initFn,
	}

	result, err := codegen.Generate(program, codegen.Options{})
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	return result.Image
}

// TestSaveStateRoundTrip exports a machine's state, re-imports it, and
// exports again: the two serialized states must be byte-identical, i.e.
// loading a freshly compiled story and immediately saving it is stable.
func TestSaveStateRoundTrip(t *testing.T) {
	image := compileFixture(t)

	inputChannel := make(chan string, 1)
	outputChannel := make(chan any, 10)
	z := zmachine.LoadRom(image, inputChannel, outputChannel)

	saved := z.ExportSaveState()
	if len(saved) == 0 {
		t.Fatal("expected a non-empty save state")
	}

	if !z.ImportSaveState(saved) {
		t.Fatal("re-importing an exported state should succeed")
	}

	resaved := z.ExportSaveState()
	if !bytes.Equal(saved, resaved) {
		t.Fatal("save state changed across an export/import/export cycle")
	}
}

// TestImportRejectsGarbage guards the save-format magic check.
func TestImportRejectsGarbage(t *testing.T) {
	image := compileFixture(t)

	z := zmachine.LoadRom(image, make(chan string, 1), make(chan any, 10))

	if z.ImportSaveState([]byte("not a save file")) {
		t.Fatal("expected garbage data to be rejected")
	}
}
