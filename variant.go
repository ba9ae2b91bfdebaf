// variant.go - per-kind payload encode/decode

package rr

import (
	"fmt"
	"io"
)

// writeVariant writes the kind-specific payload that follows the common
// header, exactly as laid out in the wire format table: no length prefix
// beyond what each variant names explicitly, no padding.
func writeVariant(w io.Writer, e *Entry) error {
	switch e.Kind {
	case KindInput1:
		return writeU8(w, uint8(e.Value))
	case KindInput2:
		return writeU16(w, uint16(e.Value))
	case KindInput4:
		return writeU32(w, uint32(e.Value))
	case KindInput8:
		return writeU64(w, e.Value)
	case KindInterruptRequest, KindExitRequest:
		return writeU32(w, uint32(e.Value))
	case KindSkippedCall:
		return writeSkippedCall(w, e.Skipped)
	case KindDebug, KindLast:
		return nil
	default:
		return fail(fmt.Sprintf("write_item: unimplemented kind %v", e.Kind))
	}
}

// readVariant reads the kind-specific payload into e, allocating any
// variable-length tail as a fresh owning buffer sized by the just-read
// length.
func readVariant(r io.Reader, e *Entry) error {
	switch e.Kind {
	case KindInput1:
		v, err := readU8(r)
		e.Value = uint64(v)
		return wrapShort(err, "INPUT_1 payload")
	case KindInput2:
		v, err := readU16(r)
		e.Value = uint64(v)
		return wrapShort(err, "INPUT_2 payload")
	case KindInput4:
		v, err := readU32(r)
		e.Value = uint64(v)
		return wrapShort(err, "INPUT_4 payload")
	case KindInput8:
		v, err := readU64(r)
		e.Value = v
		return wrapShort(err, "INPUT_8 payload")
	case KindInterruptRequest, KindExitRequest:
		v, err := readU32(r)
		e.Value = uint64(v)
		return wrapShort(err, "request payload")
	case KindSkippedCall:
		args, err := readSkippedCall(r)
		if err != nil {
			return err
		}
		e.Skipped = args
		return nil
	case KindDebug, KindLast:
		return nil
	default:
		return fail(fmt.Sprintf("read_item: unimplemented kind %d", e.Kind))
	}
}

func writeSkippedCall(w io.Writer, args SkippedCallArgs) error {
	if args == nil {
		return fail("write_item: SKIPPED_CALL entry with nil args")
	}
	if err := writeU32(w, uint32(args.Kind())); err != nil {
		return err
	}
	switch a := args.(type) {
	case CPUMemRWArgs:
		if err := writeU64(w, a.Addr); err != nil {
			return err
		}
		if err := writeU32(w, uint32(int32(len(a.Buf)))); err != nil {
			return err
		}
		return writeBytes(w, a.Buf)
	case CPUMemUnmapArgs:
		if err := writeU64(w, a.Addr); err != nil {
			return err
		}
		if err := writeU64(w, uint64(len(a.Buf))); err != nil {
			return err
		}
		return writeBytes(w, a.Buf)
	case MemRegionChangeArgs:
		if err := writeU64(w, a.Start); err != nil {
			return err
		}
		if err := writeU64(w, a.Size); err != nil {
			return err
		}
		nameBytes := []byte(a.Name)
		if err := writeU32(w, uint32(len(nameBytes))); err != nil {
			return err
		}
		if err := writeU32(w, uint32(a.MType)); err != nil {
			return err
		}
		if err := writeBool(w, a.Added); err != nil {
			return err
		}
		return writeBytes(w, nameBytes)
	case HDTransferArgs:
		return writeTransfer(w, a.TransferArgs)
	case NetTransferArgs:
		return writeTransfer(w, a.TransferArgs)
	case HandlePacketArgs:
		if err := writeU32(w, uint32(int32(len(a.Buf)))); err != nil {
			return err
		}
		if err := writeU8(w, a.Direction); err != nil {
			return err
		}
		return writeBytes(w, a.Buf)
	default:
		return fail(fmt.Sprintf("write_item: unimplemented skipped-call sub-kind %v", args.Kind()))
	}
}

func writeTransfer(w io.Writer, t TransferArgs) error {
	if err := writeU32(w, t.Type); err != nil {
		return err
	}
	if err := writeU64(w, t.Src); err != nil {
		return err
	}
	if err := writeU64(w, t.Dst); err != nil {
		return err
	}
	return writeU32(w, t.NumBytes)
}

func readSkippedCall(r io.Reader) (SkippedCallArgs, error) {
	subRaw, err := readU32(r)
	if err != nil {
		return nil, wrapShort(err, "SKIPPED_CALL sub-kind")
	}
	sub := SkippedCallKind(subRaw)
	switch sub {
	case SkippedCPUMemRW:
		addr, err := readU64(r)
		if err != nil {
			return nil, wrapShort(err, "CPU_MEM_RW addr")
		}
		ln, err := readU32(r)
		if err != nil {
			return nil, wrapShort(err, "CPU_MEM_RW len")
		}
		buf, err := readBytes(r, int(int32(ln)))
		if err != nil {
			return nil, wrapShort(err, "CPU_MEM_RW buf")
		}
		return CPUMemRWArgs{Addr: addr, Len: int32(ln), Buf: buf}, nil
	case SkippedCPUMemUnmap:
		addr, err := readU64(r)
		if err != nil {
			return nil, wrapShort(err, "CPU_MEM_UNMAP addr")
		}
		ln, err := readU64(r)
		if err != nil {
			return nil, wrapShort(err, "CPU_MEM_UNMAP len")
		}
		buf, err := readBytes(r, int(ln))
		if err != nil {
			return nil, wrapShort(err, "CPU_MEM_UNMAP buf")
		}
		return CPUMemUnmapArgs{Addr: addr, Len: ln, Buf: buf}, nil
	case SkippedMemRegionChange:
		start, err := readU64(r)
		if err != nil {
			return nil, wrapShort(err, "MEM_REGION_CHANGE start")
		}
		size, err := readU64(r)
		if err != nil {
			return nil, wrapShort(err, "MEM_REGION_CHANGE size")
		}
		nameLen, err := readU32(r)
		if err != nil {
			return nil, wrapShort(err, "MEM_REGION_CHANGE name len")
		}
		mtypeRaw, err := readU32(r)
		if err != nil {
			return nil, wrapShort(err, "MEM_REGION_CHANGE mtype")
		}
		added, err := readBool(r)
		if err != nil {
			return nil, wrapShort(err, "MEM_REGION_CHANGE added")
		}
		// The name is read as exactly nameLen bytes; no terminator is
		// stored on the wire or in the decoded string.
		nameBytes, err := readBytes(r, int(nameLen))
		if err != nil {
			return nil, wrapShort(err, "MEM_REGION_CHANGE name")
		}
		return MemRegionChangeArgs{
			Start: start,
			Size:  size,
			MType: MemType(mtypeRaw),
			Added: added,
			Name:  string(nameBytes),
		}, nil
	case SkippedHDTransfer:
		t, err := readTransfer(r)
		if err != nil {
			return nil, wrapShort(err, "HD_TRANSFER")
		}
		return HDTransferArgs{t}, nil
	case SkippedNetTransfer:
		t, err := readTransfer(r)
		if err != nil {
			return nil, wrapShort(err, "NET_TRANSFER")
		}
		return NetTransferArgs{t}, nil
	case SkippedHandlePacket:
		size, err := readU32(r)
		if err != nil {
			return nil, wrapShort(err, "HANDLE_PACKET size")
		}
		direction, err := readU8(r)
		if err != nil {
			return nil, wrapShort(err, "HANDLE_PACKET direction")
		}
		buf, err := readBytes(r, int(int32(size)))
		if err != nil {
			return nil, wrapShort(err, "HANDLE_PACKET buf")
		}
		return HandlePacketArgs{Direction: direction, Size: int32(size), Buf: buf}, nil
	default:
		return nil, fail(fmt.Sprintf("read_item: unimplemented skipped-call sub-kind %d", subRaw))
	}
}

func readTransfer(r io.Reader) (TransferArgs, error) {
	typ, err := readU32(r)
	if err != nil {
		return TransferArgs{}, err
	}
	src, err := readU64(r)
	if err != nil {
		return TransferArgs{}, err
	}
	dst, err := readU64(r)
	if err != nil {
		return TransferArgs{}, err
	}
	nbytes, err := readU32(r)
	if err != nil {
		return TransferArgs{}, err
	}
	return TransferArgs{Type: typ, Src: src, Dst: dst, NumBytes: nbytes}, nil
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	wireOrder.PutUint16(buf[:], v)
	return fullWrite(w, buf[:])
}

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return wireOrder.Uint16(buf[:]), nil
}

func wrapShort(err error, what string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("rr: short read on %s: %w", what, err)
}
