package regio

import (
	"sync"
)

// Transfer is one unit latched by the peripheral on a send-request.
type Transfer struct {
	Value uint32
	Data  bool // false for a command byte
	Byte  bool // 8-bit transfer, Value holds a single byte
}

// Sink receives what a simulated peripheral would push to the panel.
type Sink interface {
	PowerChanged(on bool)
	Transferred(t Transfer)
}

// Access is one register access recorded by SimBank.
type Access struct {
	Write  bool
	Offset Offset
	Value  uint32
}

// SimOpts configures a SimBank.
type SimOpts struct {
	// BusyPolls is the number of Status reads answering busy before a
	// latched transfer completes.
	BusyPolls int
	// Stuck keeps the busy flag raised forever once a transfer started.
	Stuck bool
	// Record keeps every register access for later inspection.
	Record bool
	// Sink, if set, is notified of power edges and completed transfers.
	Sink Sink
}

// SimBank is an in-memory model of the peripheral.
//
// A transfer is latched on the rising edge of the send-request bit while the
// power-enable bit is set and the peripheral is idle. It completes after
// BusyPolls reads of Status answered busy.
type SimBank struct {
	mu        sync.Mutex
	opts      SimOpts
	regs      [Size / 4]uint32
	remaining int
	latched   Transfer
	accesses  []Access
	completed int
}

// NewSim returns a simulated register bank.
func NewSim(opts *SimOpts) *SimBank {
	s := &SimBank{}
	if opts != nil {
		s.opts = *opts
	}
	return s
}

// ReadRegister implements Bank.
func (s *SimBank) ReadRegister(off Offset) uint32 {
	i := index(off)
	s.mu.Lock()
	var done *Transfer
	if off == Status && s.regs[i]&Busy != 0 && !s.opts.Stuck {
		if s.remaining > 0 {
			s.remaining--
		} else {
			s.regs[i] &^= Busy
			s.completed++
			t := s.latched
			done = &t
		}
	}
	v := s.regs[i]
	s.record(false, off, v)
	sink := s.opts.Sink
	s.mu.Unlock()

	if done != nil && sink != nil {
		sink.Transferred(*done)
	}
	return v
}

// WriteRegister implements Bank.
func (s *SimBank) WriteRegister(off Offset, v uint32) {
	i := index(off)
	s.mu.Lock()
	s.record(true, off, v)
	if off == Status || off == Reserved {
		// Read-only from the software side.
		s.mu.Unlock()
		return
	}
	prev := s.regs[i]
	s.regs[i] = v
	powerEdge := false
	if off == Control {
		powerEdge = (prev^v)&PowerEnable != 0
		busy := &s.regs[index(Status)]
		if v&PowerEnable == 0 {
			*busy &^= Busy
		} else if prev&SendRequest == 0 && v&SendRequest != 0 && *busy&Busy == 0 {
			t := Transfer{
				Value: s.regs[index(Payload)],
				Data:  v&DataMode != 0,
				Byte:  v&ByteWidth != 0,
			}
			if t.Byte {
				t.Value &= 0xFF
			}
			s.latched = t
			s.remaining = s.opts.BusyPolls
			*busy |= Busy
		}
	}
	sink := s.opts.Sink
	s.mu.Unlock()

	if powerEdge && sink != nil {
		sink.PowerChanged(v&PowerEnable != 0)
	}
}

// SetStuck changes whether the busy flag ever clears.
func (s *SimBank) SetStuck(stuck bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Stuck = stuck
}

// SetSink replaces the listener notified of power edges and transfers.
func (s *SimBank) SetSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Sink = sink
}

// Accesses returns a copy of the recorded accesses.
func (s *SimBank) Accesses() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Access(nil), s.accesses...)
}

// ResetAccesses drops the recorded accesses.
func (s *SimBank) ResetAccesses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses = nil
}

// Completed returns the number of transfers completed so far.
func (s *SimBank) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

func (s *SimBank) record(write bool, off Offset, v uint32) {
	if s.opts.Record {
		s.accesses = append(s.accesses, Access{Write: write, Offset: off, Value: v})
	}
}

func (s *SimBank) String() string {
	return "SimBank"
}

var _ Bank = &SimBank{}
