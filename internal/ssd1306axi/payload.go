package ssd1306axi

import (
	"fmt"

	"github.com/jypelle/oledanim/internal/regio"
)

// Payload is one of the transfer shapes the peripheral supports: Cmd,
// WordBurst, ByteBurst or RawByte.
//
// Each unit of a payload is sent with its own handshake.
type Payload interface {
	// control derives the Control value used for every unit from the value
	// read before the transfer.
	control(reg uint32) uint32
	units() []uint32
	fmt.Stringer
}

// Cmd is a command opcode followed by its argument bytes, sent as 8-bit
// command units.
type Cmd struct {
	Op   Command
	Args []byte
}

// WordBurst is pixel data sent as 32-bit data units.
type WordBurst []uint32

// ByteBurst is pixel data sent as 8-bit data units.
type ByteBurst []byte

// RawByte is a single 8-bit unit, tagged as data or command.
type RawByte struct {
	Value byte
	Data  bool
}

func (c Cmd) control(reg uint32) uint32 {
	return (reg | regio.ByteWidth) &^ regio.DataMode
}

func (c Cmd) units() []uint32 {
	u := make([]uint32, 0, 1+len(c.Args))
	u = append(u, uint32(c.Op))
	for _, a := range c.Args {
		u = append(u, uint32(a))
	}
	return u
}

func (c Cmd) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

func (w WordBurst) control(reg uint32) uint32 {
	return (reg | regio.DataMode) &^ regio.ByteWidth
}

func (w WordBurst) units() []uint32 {
	return w
}

func (w WordBurst) String() string {
	return fmt.Sprintf("WordBurst(%d)", len(w))
}

func (b ByteBurst) control(reg uint32) uint32 {
	return reg | regio.DataMode | regio.ByteWidth
}

func (b ByteBurst) units() []uint32 {
	u := make([]uint32, len(b))
	for i, v := range b {
		u[i] = uint32(v)
	}
	return u
}

func (b ByteBurst) String() string {
	return fmt.Sprintf("ByteBurst(%d)", len(b))
}

func (r RawByte) control(reg uint32) uint32 {
	reg |= regio.ByteWidth
	if r.Data {
		return reg | regio.DataMode
	}
	return reg &^ regio.DataMode
}

func (r RawByte) units() []uint32 {
	return []uint32{uint32(r.Value)}
}

func (r RawByte) String() string {
	if r.Data {
		return fmt.Sprintf("RawByte(data 0x%02X)", r.Value)
	}
	return fmt.Sprintf("RawByte(command 0x%02X)", r.Value)
}
