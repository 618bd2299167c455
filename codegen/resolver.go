package codegen

// resolve walks every UnresolvedReference queued during emission and
// patches its location with the target's now-known address, per spec.md
// §4.7/§9. It is the codegen core's single second pass: everything before
// this point only ever appends to the image or records an address.
func resolve(im *image) error {
	for _, ref := range im.unresolved {
		addr, ok := im.addresses[ref.Target]
		if !ok {
			return fatalf(KindUnresolvedReference, ref.Target.ID, ref.Location,
				"reference to %s %d was never defined", targetKindName(ref.Target.Kind), ref.Target.ID)
		}

		switch ref.Kind {
		case PatchPackedFunction, PatchPackedString:
			if addr%2 != 0 {
				return fatalf(KindEncoding, ref.Target.ID, ref.Location, "packed address 0x%x is not even", addr)
			}
			im.patchHalfWord(ref.Location, uint16(addr/2))

		case PatchByteAddress:
			im.patchHalfWord(ref.Location, uint16(addr))

		case PatchBranchOffset:
			if err := patchBranch(im, ref, addr); err != nil {
				return err
			}

		case PatchJumpOffset:
			offset := int64(addr) - int64(ref.Location)
			if offset < -32768 || offset > 32767 {
				return fatalf(KindOverflow, ref.Target.ID, ref.Location, "jump offset %d out of signed 16-bit range", offset)
			}
			im.patchHalfWord(ref.Location, uint16(int16(offset)))
		}
	}

	return nil
}

// patchBranch computes a branch's displacement and writes it in the
// mandatory two-byte form: bit 7 of the first byte is the sense (set by
// the emitter and preserved here), bit 6 is always 0 (two-byte form), and
// the remaining 14 bits are the signed offset, high byte first.
//
// Offsets of exactly 0 or 1 are reserved by the Z-Machine standard to mean
// "return false"/"return true" rather than an ordinary branch target; a
// well-formed routine should never produce one (it would require a target
// label sitting at the branch field's own first or second byte), so this
// treats it as fatal rather than attempting to relocate the branch by
// inserting a NOP, which would shift every address computed since.
//
// Per zmachine.go's handleBranch, by the time the offset arithmetic runs
// the interpreter's PC already sits just past the two branch bytes, so the
// destination is branch_field_start + offset - with no further "+2": this
// resolver's ref.Location is already that branch_field_start, so the patch
// formula is exactly `offset = target - ref.Location` (see resolve's
// PatchJumpOffset case for the equivalent jump-operand reasoning).
func patchBranch(im *image, ref UnresolvedReference, addr uint32) error {
	sense := im.bytes[ref.Location] & 0x80

	offset := int64(addr) - int64(ref.Location)
	if offset == 0 || offset == 1 {
		return fatalf(KindEncoding, ref.Target.ID, ref.Location, "branch offset %d collides with the reserved return-false/return-true encoding", offset)
	}
	if offset < -8192 || offset > 8191 {
		return fatalf(KindOverflow, ref.Target.ID, ref.Location, "branch offset %d out of signed 14-bit range", offset)
	}

	packed := uint16(offset) & 0x3FFF
	im.patchByte(ref.Location, sense|byte(packed>>8))
	im.patchByte(ref.Location+1, byte(packed))
	return nil
}

func targetKindName(k TargetKind) string {
	switch k {
	case TargetFunction:
		return "function"
	case TargetString:
		return "string"
	case TargetLabel:
		return "label"
	case TargetObjectPropTable:
		return "object property table"
	default:
		return "target"
	}
}
