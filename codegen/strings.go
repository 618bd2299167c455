package codegen

import "github.com/gruelang/grue/ir"

// StringPool deduplicates string literals and, once every other region has
// been emitted, writes their encoded Z-character payloads into the string
// region (kept last per the Open Questions decision in SPEC_FULL.md).
// Grounded on the decode side implemented by zstring.Decode in this repo's
// bundled interpreter; StringPool is its inverse.
type StringPool struct {
	byText map[string]ir.Id
	order  []ir.Id
	text   map[ir.Id]string
	alias  map[ir.Id]ir.Id
}

func NewStringPool() *StringPool {
	return &StringPool{
		byText: make(map[string]ir.Id),
		text:   make(map[ir.Id]string),
		alias:  make(map[ir.Id]ir.Id),
	}
}

// Intern registers id's text, returning the canonical id that owns the
// encoded payload for this text. Idempotent: interning the same text twice
// (under different ids) returns the first id both times.
func (p *StringPool) Intern(id ir.Id, text string) ir.Id {
	if canon, ok := p.byText[text]; ok {
		if canon != id {
			p.alias[id] = canon
		}
		return canon
	}
	p.byText[text] = id
	p.text[id] = text
	p.order = append(p.order, id)
	return id
}

// Resolve maps any previously-interned id (canonical or alias) to the
// canonical id carrying the encoded payload.
func (p *StringPool) Resolve(id ir.Id) ir.Id {
	if canon, ok := p.alias[id]; ok {
		return canon
	}
	return id
}

// EmitAll encodes every canonical string in intern order into im's string
// region, recording each one's address (its first payload byte, after
// even-byte padding) in the image's address table under
// Target{TargetString, id}.
func (p *StringPool) EmitAll(im *image) {
	for _, id := range p.order {
		im.padTo(2)
		addr := im.cursor()
		words := encodeZString(p.text[id])
		writeZStringWords(im, words)
		im.setAddress(Target{Kind: TargetString, ID: uint32(id)}, addr)
	}
}
