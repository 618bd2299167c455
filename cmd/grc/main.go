// Command grc is the Grue compiler's CLI front end. The lexer, parser, and
// semantic analyzer that turn ".grue" source into an ir.Program are an
// external collaborator (spec.md §1/§6) not built by this repo; compile
// instead accepts that IR directly as JSON, which is how a future frontend
// - or these tests - hand work to the codegen core.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gruelang/grue/codegen"
	"github.com/gruelang/grue/ir"
	"github.com/spf13/cobra"
)

var (
	outputPath      string
	includeNumerals bool
	serial          string
)

var rootCmd = &cobra.Command{
	Use:   "grc",
	Short: "Grue compiler - code-generation core for the Z-Machine toolchain",
}

var compileCmd = &cobra.Command{
	Use:   "compile <program.ir.json>",
	Short: "Compile an IR program (JSON) into a V3 story file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Compile the built-in hello-world sample program",
	RunE:  runDemo,
}

var disasmCmd = &cobra.Command{
	Use:   "disasm <story.z3>",
	Short: "Disassemble a story file (stub - the disassembler is a separate tool)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("disasm is not implemented by the codegen core; see the standalone disassembler")
	},
}

func init() {
	compileCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output .z3 path (default: input path with .z3 extension)")
	compileCmd.Flags().BoolVar(&includeNumerals, "numerals", false, "include dictionary entries 0..100 unconditionally")
	compileCmd.Flags().StringVar(&serial, "serial", "", "header serial number (6 ASCII chars; default leaves it zero-padded)")
	demoCmd.Flags().StringVarP(&outputPath, "output", "o", "demo.z3", "output .z3 path")

	rootCmd.AddCommand(compileCmd, demoCmd, disasmCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading IR program: %w", err)
	}

	var program ir.Program
	if err := json.Unmarshal(data, &program); err != nil {
		return fmt.Errorf("parsing IR program: %w", err)
	}

	return compileAndWrite(&program, outputPath, args[0])
}

func runDemo(cmd *cobra.Command, args []string) error {
	return compileAndWrite(demoProgram(), outputPath, "demo")
}

func compileAndWrite(program *ir.Program, out, inputHint string) error {
	result, err := codegen.Generate(program, codegen.Options{
		IncludeNumerals: includeNumerals,
		Serial:          serial,
	})
	if err != nil {
		return fmt.Errorf("codegen: %w", err)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}

	if out == "" {
		out = inputHint + ".z3"
	}
	if err := os.WriteFile(out, result.Image, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Fprintf(os.Stdout, "wrote %s (%d bytes)\n", out, len(result.Image))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
