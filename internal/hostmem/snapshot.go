// snapshot.go - a gzip-compressed VM snapshot store implementing rr.SnapshotStore
//
// Adapted from the teacher's debug_snapshot.go: the same magic + version
// header followed by a length-prefixed, gzip-compressed memory payload,
// generalized from a fixed CPU-register snapshot to whatever register
// bank the caller hands in as an opaque, already-encoded blob.

package hostmem

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	snapshotMagic   = "RRSS"
	snapshotVersion = 1
)

// Snapshot is a point-in-time capture of a Bus's memory plus an opaque
// register blob the caller encodes and decodes itself — this store has
// no opinion on CPU architecture.
type Snapshot struct {
	Registers []byte
	Memory    []byte
}

// SnapshotStore persists Snapshots to disk, implementing rr.SnapshotStore
// against a particular Bus.
type SnapshotStore struct {
	bus         *Bus
	getRegisters func() []byte
	setRegisters func([]byte)
}

// NewSnapshotStore wires a SnapshotStore to bus and to the caller's own
// register encode/decode functions.
func NewSnapshotStore(bus *Bus, getRegisters func() []byte, setRegisters func([]byte)) *SnapshotStore {
	return &SnapshotStore{bus: bus, getRegisters: getRegisters, setRegisters: setRegisters}
}

// Exists reports whether a snapshot file is present at path.
func (s *SnapshotStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Save captures the bus's current memory and the caller's registers and
// writes them to path.
func (s *SnapshotStore) Save(path string) error {
	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(snapshotVersion))

	regs := s.getRegisters()
	binary.Write(&buf, binary.LittleEndian, uint32(len(regs)))
	buf.Write(regs)

	mem := s.bus.Contents()
	binary.Write(&buf, binary.LittleEndian, uint32(len(mem)))

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(mem); err != nil {
		return fmt.Errorf("hostmem: compressing memory: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("hostmem: closing gzip: %w", err)
	}
	buf.Write(compressed.Bytes())

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Load restores the bus's memory and the caller's registers from path.
func (s *SnapshotStore) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r := bytes.NewReader(data)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("hostmem: reading magic: %w", err)
	}
	if string(magic) != snapshotMagic {
		return fmt.Errorf("hostmem: invalid snapshot magic %q", string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("hostmem: reading version: %w", err)
	}
	if version != snapshotVersion {
		return fmt.Errorf("hostmem: unsupported snapshot version %d", version)
	}

	var regLen uint32
	if err := binary.Read(r, binary.LittleEndian, &regLen); err != nil {
		return fmt.Errorf("hostmem: reading register length: %w", err)
	}
	regs := make([]byte, regLen)
	if _, err := io.ReadFull(r, regs); err != nil {
		return fmt.Errorf("hostmem: reading registers: %w", err)
	}

	var memLen uint32
	if err := binary.Read(r, binary.LittleEndian, &memLen); err != nil {
		return fmt.Errorf("hostmem: reading memory length: %w", err)
	}

	remaining := data[len(data)-r.Len():]
	gz, err := gzip.NewReader(bytes.NewReader(remaining))
	if err != nil {
		return fmt.Errorf("hostmem: opening gzip reader: %w", err)
	}
	defer gz.Close()

	mem := make([]byte, memLen)
	if _, err := io.ReadFull(gz, mem); err != nil {
		return fmt.Errorf("hostmem: decompressing memory: %w", err)
	}

	s.bus.Reset()
	if err := s.bus.WritePhysical(0, mem); err != nil {
		return fmt.Errorf("hostmem: restoring memory: %w", err)
	}
	s.setRegisters(regs)
	return nil
}
