package regio

import (
	"fmt"
	"sync/atomic"

	"periph.io/x/host/v3/pmem"
)

// MemBank accesses the registers through a mapping of physical memory.
type MemBank struct {
	view *pmem.View
	regs []uint32
	base uint64
}

// OpenMem maps the register set located at the physical address base.
//
// It normally requires root privileges since it relies on /dev/mem.
func OpenMem(base uint64) (*MemBank, error) {
	if base%4 != 0 {
		return nil, fmt.Errorf("regio: base address 0x%x is not 32-bit aligned", base)
	}
	v, err := pmem.Map(base, Size)
	if err != nil {
		return nil, fmt.Errorf("regio: %w", err)
	}
	return &MemBank{view: v, regs: v.Uint32(), base: base}, nil
}

// ReadRegister implements Bank.
func (m *MemBank) ReadRegister(off Offset) uint32 {
	return atomic.LoadUint32(&m.regs[index(off)])
}

// WriteRegister implements Bank.
func (m *MemBank) WriteRegister(off Offset, v uint32) {
	atomic.StoreUint32(&m.regs[index(off)], v)
}

// Close unmaps the registers.
func (m *MemBank) Close() error {
	return m.view.Close()
}

func (m *MemBank) String() string {
	return fmt.Sprintf("MemBank(0x%08x)", m.base)
}

var _ Bank = &MemBank{}
