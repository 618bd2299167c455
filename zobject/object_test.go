package zobject_test

import (
	"testing"

	"github.com/gruelang/grue/codegen"
	"github.com/gruelang/grue/ir"
	"github.com/gruelang/grue/zcore"
	"github.com/gruelang/grue/zobject"
	"github.com/gruelang/grue/zstring"
)

// compileFixture builds a tiny story file with the compiler so the object
// reader is exercised against the exact table layout the rest of this repo
// emits: player (#1), a mailbox (#2) holding a leaflet (#3).
func compileFixture(t *testing.T) *zcore.Core {
	t.Helper()

	const (
		initFn  ir.Id = 1
		mailbox ir.Id = 200
		leaflet ir.Id = 201
	)

	program := &ir.Program{
		Functions: []*ir.Function{{
			ID:   initFn,
			Name: "init",
			Body: []ir.Instruction{{Op: ir.OpSystem, Sys: ir.SysQuit}},
		}},
		Objects: []*ir.Object{
			{ID: ir.PlayerObjectID, ShortName: "yourself"},
			{
				ID:         mailbox,
				ShortName:  "small mailbox",
				Child:      leaflet,
				Attributes: []uint8{3, 19},
				Properties: []ir.Property{
					{Number: 17, Data: []uint8{0x12, 0x34}},
					{Number: 5, Data: []uint8{0x07}},
				},
			},
			{ID: leaflet, ShortName: "leaflet", Parent: mailbox},
		},
		InitFunction: initFn,
	}

	result, err := codegen.Generate(program, codegen.Options{})
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	core := zcore.LoadCore(result.Image)
	return &core
}

func TestZerothObjectRetrieval(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Retrieving object with id 0 should panic")
		}
	}()

	core := compileFixture(t)

	zobject.GetObject(0, core, zstring.LoadAlphabets(core))
}

func TestObjectRetrieval(t *testing.T) {
	core := compileFixture(t)
	alphabets := zstring.LoadAlphabets(core)

	obj := zobject.GetObject(2, core, alphabets)

	if obj.Name != "small mailbox" {
		t.Errorf("Incorrect name %s", obj.Name)
	}
	if obj.Parent != 0 {
		t.Errorf("Incorrect parent %d", obj.Parent)
	}
	if obj.Child != 3 {
		t.Errorf("Incorrect child %d", obj.Child)
	}

	leaflet := zobject.GetObject(3, core, alphabets)
	if leaflet.Parent != 2 {
		t.Errorf("Incorrect parent %d", leaflet.Parent)
	}
	if leaflet.Name != "leaflet" {
		t.Errorf("Incorrect name %s", leaflet.Name)
	}
}

func TestPropertyRetrieval(t *testing.T) {
	core := compileFixture(t)
	obj := zobject.GetObject(2, core, zstring.LoadAlphabets(core))

	prop17 := obj.GetProperty(17, core)
	if prop17.Length != 2 {
		t.Errorf("Incorrect property length %d", prop17.Length)
	}
	if prop17.Data[0] != 0x12 || prop17.Data[1] != 0x34 {
		t.Errorf("Incorrect property data %x%x", prop17.Data[0], prop17.Data[1])
	}

	prop5 := obj.GetProperty(5, core)
	if prop5.Length != 1 {
		t.Errorf("Incorrect property length %d", prop5.Length)
	}
	if prop5.Data[0] != 0x07 {
		t.Errorf("Incorrect property data %x", prop5.Data[0])
	}

	// Non-existent property falls back to the (zeroed) defaults table
	prop9 := obj.GetProperty(9, core)
	if prop9.DataAddress != 0 {
		t.Error("Property 9 shouldn't exist on object 2")
	}
	if prop9.Data[0] != 0 || prop9.Data[1] != 0 {
		t.Errorf("Incorrect default property data %x%x", prop9.Data[0], prop9.Data[1])
	}
}

func TestPropertyIteration(t *testing.T) {
	core := compileFixture(t)
	obj := zobject.GetObject(2, core, zstring.LoadAlphabets(core))

	// Properties are laid out in descending number order
	first := obj.GetNextProperty(0, core)
	if first != 17 {
		t.Errorf("Incorrect first property %d", first)
	}
	second := obj.GetNextProperty(17, core)
	if second != 5 {
		t.Errorf("Incorrect next property %d", second)
	}
	last := obj.GetNextProperty(5, core)
	if last != 0 {
		t.Errorf("Expected 0 after the final property, got %d", last)
	}
}

func TestSetProperty(t *testing.T) {
	core := compileFixture(t)
	obj := zobject.GetObject(2, core, zstring.LoadAlphabets(core))

	obj.SetProperty(17, 0xBEEF, core)

	prop17 := obj.GetProperty(17, core)
	if prop17.Data[0] != 0xBE || prop17.Data[1] != 0xEF {
		t.Errorf("Incorrect property data after set %x%x", prop17.Data[0], prop17.Data[1])
	}
}

func TestAttributes(t *testing.T) {
	core := compileFixture(t)
	alphabets := zstring.LoadAlphabets(core)

	mailbox := zobject.GetObject(2, core, alphabets)

	if mailbox.TestAttribute(1) || mailbox.TestAttribute(4) || mailbox.TestAttribute(10) {
		t.Error("Mailbox should not have attributes 1,4,10 set")
	}
	if !(mailbox.TestAttribute(3) && mailbox.TestAttribute(19)) {
		t.Error("Mailbox should have attributes 3,19 set")
	}

	mailbox.SetAttribute(10, core)
	if !mailbox.TestAttribute(10) {
		t.Error("Setting attribute 10 didn't work")
	}
	refetched := zobject.GetObject(2, core, alphabets)
	if !refetched.TestAttribute(10) {
		t.Error("Attribute 10 not visible on a fresh read")
	}

	mailbox.ClearAttribute(10, core)
	if mailbox.TestAttribute(10) {
		t.Error("Clearing attribute 10 didn't work")
	}
}
