// Package regio exposes the four 32-bit registers of the OLED controller
// peripheral.
//
// The peripheral is seen by software as a bank of four consecutive registers:
//
//	offset 0  Control   power-enable, send-request, data-mode, 8-bit width
//	offset 4  Payload   value to transmit (8 or 32 significant bits)
//	offset 8  Status    busy flag
//	offset 12 Reserved
//
// Register access never fails once the bank exists: the hardware exposes no
// error channel.
package regio

import "fmt"

// Offset is a byte offset from the peripheral base address.
type Offset uint32

const (
	Control  Offset = 0
	Payload  Offset = 4
	Status   Offset = 8
	Reserved Offset = 12

	// Size is the number of bytes spanned by the register set.
	Size = 16
)

// Control register bits.
const (
	PowerEnable uint32 = 1 << 0
	SendRequest uint32 = 1 << 1
	DataMode    uint32 = 1 << 2
	ByteWidth   uint32 = 1 << 3
)

// Status register bits.
const (
	Busy uint32 = 1 << 0
)

// Bank is the capability to read and write the peripheral registers.
//
// Implementations must perform each access as a single 32-bit volatile
// access so the peripheral observes every write in program order.
type Bank interface {
	ReadRegister(off Offset) uint32
	WriteRegister(off Offset, v uint32)
}

func (o Offset) String() string {
	switch o {
	case Control:
		return "Control"
	case Payload:
		return "Payload"
	case Status:
		return "Status"
	case Reserved:
		return "Reserved"
	default:
		return fmt.Sprintf("Offset(%d)", uint32(o))
	}
}

func index(off Offset) int {
	if off%4 != 0 || off >= Size {
		panic(fmt.Sprintf("regio: invalid register offset %d", uint32(off)))
	}
	return int(off / 4)
}
