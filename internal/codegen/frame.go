package codegen

// ---------------------------------------------------------------------------
// Frame — the single activation record holding every field of the program
// ---------------------------------------------------------------------------

// MaxFrameFields is the fixed field budget of the activation record.
const MaxFrameFields = 1024

// slotSize is the width of one field slot in bytes.
const slotSize = 8

// Frame maps field names to fixed rbp-relative byte offsets. Slots are
// handed out in first-declaration order and grow the frame downward, so
// the first field lands at -8, the second at -16 and so on. Allocate is
// idempotent per name and the offsets are injective across names.
type Frame struct {
	offsets map[string]int
	order   []string
}

func NewFrame() *Frame {
	return &Frame{offsets: make(map[string]int)}
}

// Allocate reserves a slot for the named field, or returns the slot it
// already owns. Fails with FrameOverflow once the field budget is spent.
func (f *Frame) Allocate(name string) (int, error) {
	if off, ok := f.offsets[name]; ok {
		return off, nil
	}
	if len(f.order) >= MaxFrameFields {
		return 0, errorf(FrameOverflow, noPos, "program declares more than %d fields", MaxFrameFields)
	}
	off := -(len(f.order) + 1) * slotSize
	f.offsets[name] = off
	f.order = append(f.order, name)
	return off, nil
}

// Lookup returns the slot of an already-declared field. A reference to a
// field without a slot is an UnknownField error; the front-end rejects
// these before the backend runs, but the backend defends regardless.
func (f *Frame) Lookup(name string) (int, error) {
	off, ok := f.offsets[name]
	if !ok {
		return 0, errorf(UnknownField, noPos, "field .%s referenced before assignment", name)
	}
	return off, nil
}

// SlotCount is the number of field slots reserved so far.
func (f *Frame) SlotCount() int {
	return len(f.order)
}

// Size returns the byte size of the field area rounded up to the 16-byte
// stack alignment the ABI requires. Scratch slots for expression
// temporaries are added on top by the emitter.
func (f *Frame) Size() int {
	return alignFrame(len(f.order) * slotSize)
}

func alignFrame(n int) int {
	if n%16 != 0 {
		n += 16 - n%16
	}
	return n
}
