package codegen

import (
	"strings"
	"testing"
	"time"

	"github.com/gruelang/grue/ir"
	"github.com/gruelang/grue/zmachine"
)

// grammarProgram builds a playable program exercising every pattern shape
// the dispatcher emits: a verb-only default, a verb+literal alternative, a
// verb+literal+noun alternative, and an unknown-verb fallback, plus a quit
// verb to end the session.
func grammarProgram() *ir.Program {
	const (
		initFn       ir.Id = 1
		lookFn       ir.Id = 2
		lookAroundFn ir.Id = 3
		examineFn    ir.Id = 4
		quitFn       ir.Id = 5

		welcomeMsg    ir.Id = 100
		lookMsg       ir.Id = 101
		lookAroundMsg ir.Id = 102
		examineMsg    ir.Id = 103

		mailbox ir.Id = 200
	)

	noun := ir.VarRef{Kind: ir.VarLocal, Index: 0}

	return &ir.Program{
		Functions: []*ir.Function{
			{
				ID:   initFn,
				Name: "init",
				Body: []ir.Instruction{
					{Op: ir.OpPrint, String: welcomeMsg},
					{Op: ir.OpNewline},
					{Op: ir.OpReturn},
				},
			},
			{
				ID:   lookFn,
				Name: "look",
				Body: []ir.Instruction{
					{Op: ir.OpPrint, String: lookMsg},
					{Op: ir.OpNewline},
					{Op: ir.OpReturn},
				},
			},
			{
				ID:   lookAroundFn,
				Name: "lookAround",
				Body: []ir.Instruction{
					{Op: ir.OpPrint, String: lookAroundMsg},
					{Op: ir.OpNewline},
					{Op: ir.OpReturn},
				},
			},
			{
				ID:        examineFn,
				Name:      "examine",
				NumParams: 1,
				NumLocals: 1,
				Body: []ir.Instruction{
					{Op: ir.OpPrint, String: examineMsg},
					{Op: ir.OpPrintObj, Obj: ir.VarOperand(noun)},
					{Op: ir.OpNewline},
					{Op: ir.OpReturn},
				},
			},
			{
				ID:   quitFn,
				Name: "quitGame",
				Body: []ir.Instruction{
					{Op: ir.OpSystem, Sys: ir.SysQuit},
				},
			},
		},
		Objects: []*ir.Object{
			{ID: ir.PlayerObjectID, ShortName: "yourself"},
			{ID: mailbox, ShortName: "mailbox"},
		},
		Strings: []*ir.StringLiteral{
			{ID: welcomeMsg, Text: "Welcome."},
			{ID: lookMsg, Text: "You look."},
			{ID: lookAroundMsg, Text: "You look around."},
			{ID: examineMsg, Text: "You examine the "},
		},
		Grammar: []*ir.GrammarRule{
			{
				Verb: "look",
				Patterns: []ir.GrammarPattern{
					{Kind: ir.PatternLiteralNoun, Literal: "at", Handler: examineFn},
					{Kind: ir.PatternLiteral, Literal: "around", Handler: lookAroundFn},
					{Kind: ir.PatternDefault, Handler: lookFn},
				},
			},
			{
				Verb:     "quit",
				Patterns: []ir.GrammarPattern{{Kind: ir.PatternDefault, Handler: quitFn}},
			},
		},
		InitFunction: initFn,
	}
}

// TestDispatcherMatchesPatternsUnderInterpreter plays a full session
// against the bundled interpreter: pattern specificity ("look around" must
// not fall through to "look"), literal+noun resolution against a declared
// object, and the unknown-verb fallback.
func TestDispatcherMatchesPatternsUnderInterpreter(t *testing.T) {
	result, err := Generate(grammarProgram(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inputChannel := make(chan string, 10)
	for _, command := range []string{"look", "look around", "look at mailbox", "frobnicate", "quit"} {
		inputChannel <- command
	}

	outputChannel := make(chan any, 200)
	z := zmachine.LoadRom(result.Image, inputChannel, outputChannel)

	done := make(chan struct{})
	go func() {
		defer close(done)
		z.Run()
	}()

	var text strings.Builder
	timeout := time.After(5 * time.Second)
collect:
	for {
		select {
		case msg := <-outputChannel:
			switch v := msg.(type) {
			case string:
				text.WriteString(v)
			case zmachine.Quit:
				break collect
			}
		case <-done:
			// Run has returned; drain output it buffered before exiting.
			for {
				select {
				case msg := <-outputChannel:
					if s, ok := msg.(string); ok {
						text.WriteString(s)
					}
				default:
					break collect
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for the interpreter to quit")
		}
	}

	want := "Welcome.\n" +
		"You look.\n" +
		"You look around.\n" +
		"You examine the mailbox\n" +
		"I don't understand that.\n"
	if got := text.String(); got != want {
		t.Errorf("session output = %q, want %q", got, want)
	}
}
