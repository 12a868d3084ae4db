package pipeline

// Handle is an index into a Table. Handles stay valid for the lifetime of the table;
// rebuilding a pipeline replaces its entry in place.
type Handle int32

// InvalidHandle is never returned by Table.Add.
const InvalidHandle Handle = -1

// Native is a device-compiled pipeline object.
type Native interface {
	Release()
}

type entry struct {
	desc   Descriptor
	native Native
}

// Table is an arena of pipelines addressed by Handle. It owns the compiled native
// objects and releases them when an entry is replaced or the table is released.
// A pipeline is usable once a device has compiled its current descriptor.
type Table struct {
	entries []entry
}

// NewTable creates an empty pipeline table.
//
// Returns:
//   - *Table: the new table
func NewTable() *Table {
	return &Table{}
}

// Add appends a descriptor and returns its handle. The new entry is not usable until
// SetNative is called for it.
//
// Parameters:
//   - desc: the pipeline descriptor
//
// Returns:
//   - Handle: the index of the new entry
func (t *Table) Add(desc Descriptor) Handle {
	t.entries = append(t.entries, entry{desc: desc})
	return Handle(len(t.entries) - 1)
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Valid reports whether h addresses an entry of this table.
func (t *Table) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(t.entries)
}

// Descriptor returns the current descriptor for h.
//
// Parameters:
//   - h: the pipeline handle
//
// Returns:
//   - Descriptor: the descriptor, or the zero value for an invalid handle
func (t *Table) Descriptor(h Handle) Descriptor {
	if !t.Valid(h) {
		return Descriptor{}
	}
	return t.entries[h].desc
}

// Update replaces the descriptor for h and drops its compiled object, leaving the
// entry unusable until it is rebuilt.
//
// Parameters:
//   - h: the pipeline handle
//   - desc: the new descriptor
func (t *Table) Update(h Handle, desc Descriptor) {
	if !t.Valid(h) {
		return
	}
	t.Invalidate(h)
	t.entries[h].desc = desc
}

// Invalidate releases the compiled object for h so the entry must be rebuilt.
//
// Parameters:
//   - h: the pipeline handle
func (t *Table) Invalidate(h Handle) {
	if !t.Valid(h) {
		return
	}
	if n := t.entries[h].native; n != nil {
		n.Release()
	}
	t.entries[h].native = nil
}

// SetNative stores the compiled object for h, making it usable. Any previous object is released.
//
// Parameters:
//   - h: the pipeline handle
//   - native: the device-compiled pipeline
func (t *Table) SetNative(h Handle, native Native) {
	if !t.Valid(h) {
		return
	}
	if old := t.entries[h].native; old != nil && old != native {
		old.Release()
	}
	t.entries[h].native = native
}

// Native returns the compiled object for h, or nil if it is not usable.
func (t *Table) Native(h Handle) Native {
	if !t.Valid(h) {
		return nil
	}
	return t.entries[h].native
}

// Usable reports whether h has a compiled pipeline ready for drawing.
func (t *Table) Usable(h Handle) bool {
	return t.Native(h) != nil
}

// Pending returns the handles whose entries still need compiling.
//
// Returns:
//   - []Handle: handles of unusable entries, in ascending order
func (t *Table) Pending() []Handle {
	var out []Handle
	for i := range t.entries {
		if t.entries[i].native == nil {
			out = append(out, Handle(i))
		}
	}
	return out
}

// Release releases every compiled object. Descriptors are kept so the table can be rebuilt.
func (t *Table) Release() {
	for i := range t.entries {
		t.Invalidate(Handle(i))
	}
}
