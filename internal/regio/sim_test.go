package regio

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingSink struct {
	power     []bool
	transfers []Transfer
}

func (r *recordingSink) PowerChanged(on bool)   { r.power = append(r.power, on) }
func (r *recordingSink) Transferred(t Transfer) { r.transfers = append(r.transfers, t) }

func TestSimBank_latchOnRisingEdge(t *testing.T) {
	sink := &recordingSink{}
	s := NewSim(&SimOpts{BusyPolls: 2, Sink: sink})
	s.WriteRegister(Control, PowerEnable)
	s.WriteRegister(Payload, 0x1AF)
	s.WriteRegister(Control, PowerEnable|ByteWidth|SendRequest)

	var got []uint32
	for i := 0; i < 4; i++ {
		got = append(got, s.ReadRegister(Status)&Busy)
	}
	if diff := cmp.Diff([]uint32{Busy, Busy, 0, 0}, got); diff != "" {
		t.Fatalf("busy sequence (-want +got):\n%s", diff)
	}
	want := []Transfer{{Value: 0xAF, Byte: true}}
	if diff := cmp.Diff(want, sink.transfers); diff != "" {
		t.Fatalf("transfers (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true}, sink.power); diff != "" {
		t.Fatalf("power edges (-want +got):\n%s", diff)
	}

	// Request still set: no new edge, no new transfer.
	s.WriteRegister(Control, PowerEnable|ByteWidth|SendRequest)
	if s.ReadRegister(Status)&Busy != 0 {
		t.Fatal("level request must not retrigger")
	}
	if c := s.Completed(); c != 1 {
		t.Fatalf("Completed() = %d, want 1", c)
	}
}

func TestSimBank_unpoweredIgnoresRequest(t *testing.T) {
	sink := &recordingSink{}
	s := NewSim(&SimOpts{Sink: sink})
	s.WriteRegister(Payload, 0x12345678)
	s.WriteRegister(Control, DataMode|SendRequest)
	if s.ReadRegister(Status)&Busy != 0 {
		t.Fatal("unpowered peripheral reported busy")
	}
	if len(sink.transfers) != 0 {
		t.Fatalf("unexpected transfers %v", sink.transfers)
	}
}

func TestSimBank_stuck(t *testing.T) {
	s := NewSim(&SimOpts{Stuck: true})
	s.WriteRegister(Control, PowerEnable)
	s.WriteRegister(Control, PowerEnable|SendRequest)
	for i := 0; i < 100; i++ {
		if s.ReadRegister(Status)&Busy == 0 {
			t.Fatalf("poll %d: busy cleared on a stuck peripheral", i)
		}
	}
	// Power-off aborts the transfer.
	s.WriteRegister(Control, 0)
	if s.ReadRegister(Status)&Busy != 0 {
		t.Fatal("busy survived power-off")
	}
}

func TestSimBank_record(t *testing.T) {
	s := NewSim(&SimOpts{Record: true})
	s.WriteRegister(Control, PowerEnable)
	s.ReadRegister(Control)
	s.WriteRegister(Status, Busy)
	want := []Access{
		{Write: true, Offset: Control, Value: PowerEnable},
		{Offset: Control, Value: PowerEnable},
		{Write: true, Offset: Status, Value: Busy},
	}
	if diff := cmp.Diff(want, s.Accesses()); diff != "" {
		t.Fatalf("accesses (-want +got):\n%s", diff)
	}
	if s.ReadRegister(Status) != 0 {
		t.Fatal("Status must not be writable")
	}
	s.ResetAccesses()
	if len(s.Accesses()) != 0 {
		t.Fatal("ResetAccesses() kept entries")
	}
}

func TestOffset_String(t *testing.T) {
	for _, line := range []struct {
		o    Offset
		want string
	}{
		{Control, "Control"},
		{Payload, "Payload"},
		{Status, "Status"},
		{Reserved, "Reserved"},
		{20, "Offset(20)"},
	} {
		if s := line.o.String(); s != line.want {
			t.Errorf("%d: got %q, want %q", uint32(line.o), s, line.want)
		}
	}
}
