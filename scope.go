package main

const slotSize = 8

type binding struct {
	name   string
	offset uint64
}

// Scope maps variable names to frame offsets. It is append-only and a
// single instance is threaded through the whole parse, so offsets are
// unique across the compilation unit. Offsets count down from the frame
// pointer in 8-byte slots; the first allocation gets 8.
type Scope struct {
	bindings []binding
}

func NewScope() *Scope {
	return &Scope{}
}

// Lookup returns the offset of the first binding named name.
func (s *Scope) Lookup(name string) (uint64, bool) {
	for _, b := range s.bindings {
		if b.name == name {
			return b.offset, true
		}
	}
	return 0, false
}

func (s *Scope) nextOffset() uint64 {
	if len(s.bindings) == 0 {
		return slotSize
	}
	return s.bindings[len(s.bindings)-1].offset + slotSize
}

// Declare returns the offset bound to name, allocating a fresh slot on
// first reference. Bare identifier references auto-declare this way.
func (s *Scope) Declare(name string) uint64 {
	if off, ok := s.Lookup(name); ok {
		return off
	}
	off := s.nextOffset()
	s.bindings = append(s.bindings, binding{name: name, offset: off})
	return off
}

// DeclareLet allocates a fresh slot for a let binding. Unlike bare
// references, a let of an already-bound name is rejected.
func (s *Scope) DeclareLet(name string) (uint64, bool) {
	if _, ok := s.Lookup(name); ok {
		return 0, false
	}
	off := s.nextOffset()
	s.bindings = append(s.bindings, binding{name: name, offset: off})
	return off, true
}

// DeclareArray allocates n contiguous slots anchored at a fresh base
// offset; element i lives at base + i*8. An anonymous marker at the end
// of the region keeps later allocations from aliasing the array body.
func (s *Scope) DeclareArray(name string, n int) (uint64, bool) {
	if _, ok := s.Lookup(name); ok {
		return 0, false
	}
	base := s.nextOffset()
	end := base
	if n > 1 {
		end = base + uint64(n-1)*slotSize
	}
	s.bindings = append(s.bindings, binding{name: name, offset: base})
	s.bindings = append(s.bindings, binding{name: "", offset: end})
	return base, true
}
