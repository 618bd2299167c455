package codegen

import "fmt"

// DiagnosticKind classifies a codegen error per spec §7.
type DiagnosticKind int

const (
	KindStructural DiagnosticKind = iota
	KindEncoding
	KindOverflow
	KindUnresolvedReference
)

func (k DiagnosticKind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindEncoding:
		return "encoding"
	case KindOverflow:
		return "overflow"
	case KindUnresolvedReference:
		return "unresolved-reference"
	default:
		return "unknown"
	}
}

// Diagnostic is a single fatal compiler diagnostic, returned as an error
// from Generate. Warnings are the separate Warning type, collected and
// returned alongside a successful image.
type Diagnostic struct {
	Kind     DiagnosticKind
	Message  string
	TargetID uint32 // 0 if not applicable
	Location uint32 // byte offset into the image, if known
}

func (d Diagnostic) Error() string {
	if d.TargetID != 0 {
		return fmt.Sprintf("%s: %s (id=%d, loc=0x%x)", d.Kind, d.Message, d.TargetID, d.Location)
	}
	return fmt.Sprintf("%s: %s (loc=0x%x)", d.Kind, d.Message, d.Location)
}

func fatalf(kind DiagnosticKind, targetID uint32, location uint32, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		TargetID: targetID,
		Location: location,
	}
}

// Warning is a non-fatal diagnostic collected during a successful build,
// e.g. dictionary-word truncation.
type Warning struct {
	Message  string
	TargetID uint32
}
