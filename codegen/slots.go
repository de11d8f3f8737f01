package codegen

import "fmt"

// slotTable maps the variables of one method body to local slots. Slot 0
// holds the receiver, then parameters and locals in declaration order.
// Temporaries are handed out above the named slots and must be released
// in reverse order of reservation.
type slotTable struct {
	names map[string]int
	next  int // first slot above the named ones
	temps int
	high  int
}

func newSlotTable() *slotTable {
	return &slotTable{names: make(map[string]int), next: 1, high: 1}
}

func (s *slotTable) declare(name string) (int, error) {
	if s.temps != 0 {
		return 0, fmt.Errorf("variable %s declared while %d temporaries are live", name, s.temps)
	}
	if _, dup := s.names[name]; dup {
		return 0, fmt.Errorf("variable %s declared twice", name)
	}
	slot := s.next
	s.names[name] = slot
	s.next++
	s.high = max(s.high, s.next)
	return slot, nil
}

func (s *slotTable) lookup(name string) (int, bool) {
	slot, ok := s.names[name]
	return slot, ok
}

func (s *slotTable) reserveTemp() int {
	slot := s.next + s.temps
	s.temps++
	s.high = max(s.high, slot+1)
	return slot
}

func (s *slotTable) releaseTemp() error {
	if s.temps == 0 {
		return fmt.Errorf("temporary released twice")
	}
	s.temps--
	return nil
}

// maxLocals is the number of slots the method needs.
func (s *slotTable) maxLocals() int {
	return s.high
}
