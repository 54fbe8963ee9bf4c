package ssd1306axi

import (
	"fmt"
	"strings"
)

// Command is an SSD1306 command opcode.
//
// Some opcodes are base values meant to be OR'ed with a small operand
// (LowerColumnStartAddress, HigherColumnStartAddress, DisplayStartLine,
// PageStartAddress).
type Command byte

const (
	LowerColumnStartAddress        Command = 0x00
	HigherColumnStartAddress       Command = 0x10
	MemoryAddressingMode           Command = 0x20
	ColumnAddress                  Command = 0x21
	PageAddress                    Command = 0x22
	RightHorizontalScroll          Command = 0x26
	LeftHorizontalScroll           Command = 0x27
	VerticalRightHorizontalScroll  Command = 0x29
	VerticalLeftHorizontalScroll   Command = 0x2A
	DeactivateScroll               Command = 0x2E
	ActivateScroll                 Command = 0x2F
	DisplayStartLine               Command = 0x40
	ContrastControl                Command = 0x81
	ChargePump                     Command = 0x8D
	SegmentReMap0                  Command = 0xA0
	SegmentReMap127                Command = 0xA1
	VerticalScrollArea             Command = 0xA3
	EntireDisplayResume            Command = 0xA4
	EntireDisplayOn                Command = 0xA5
	NormalDisplay                  Command = 0xA6
	InverseDisplay                 Command = 0xA7
	MultiplexRatio                 Command = 0xA8
	DisplayOff                     Command = 0xAE
	DisplayOn                      Command = 0xAF
	PageStartAddress               Command = 0xB0
	ComOutputScanDirectionNormal   Command = 0xC0
	ComOutputScanDirectionRemapped Command = 0xC8
	DisplayOffset                  Command = 0xD3
	OscillatorFrequency            Command = 0xD5
	PreChargePeriod                Command = 0xD9
	ComPinsConfiguration           Command = 0xDA
	VcomhDeselectLevel             Command = 0xDB
	Nop                            Command = 0xE3
)

var commandNames = map[Command]string{
	LowerColumnStartAddress:        "LowerColumnStartAddress",
	HigherColumnStartAddress:       "HigherColumnStartAddress",
	MemoryAddressingMode:           "MemoryAddressingMode",
	ColumnAddress:                  "ColumnAddress",
	PageAddress:                    "PageAddress",
	RightHorizontalScroll:          "RightHorizontalScroll",
	LeftHorizontalScroll:           "LeftHorizontalScroll",
	VerticalRightHorizontalScroll:  "VerticalRightHorizontalScroll",
	VerticalLeftHorizontalScroll:   "VerticalLeftHorizontalScroll",
	DeactivateScroll:               "DeactivateScroll",
	ActivateScroll:                 "ActivateScroll",
	DisplayStartLine:               "DisplayStartLine",
	ContrastControl:                "ContrastControl",
	ChargePump:                     "ChargePump",
	SegmentReMap0:                  "SegmentReMap0",
	SegmentReMap127:                "SegmentReMap127",
	VerticalScrollArea:             "VerticalScrollArea",
	EntireDisplayResume:            "EntireDisplayResume",
	EntireDisplayOn:                "EntireDisplayOn",
	NormalDisplay:                  "NormalDisplay",
	InverseDisplay:                 "InverseDisplay",
	MultiplexRatio:                 "MultiplexRatio",
	DisplayOff:                     "DisplayOff",
	DisplayOn:                      "DisplayOn",
	PageStartAddress:               "PageStartAddress",
	ComOutputScanDirectionNormal:   "ComOutputScanDirectionNormal",
	ComOutputScanDirectionRemapped: "ComOutputScanDirectionRemapped",
	DisplayOffset:                  "DisplayOffset",
	OscillatorFrequency:            "OscillatorFrequency",
	PreChargePeriod:                "PreChargePeriod",
	ComPinsConfiguration:           "ComPinsConfiguration",
	VcomhDeselectLevel:             "VcomhDeselectLevel",
	Nop:                            "Nop",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Command(0x%02X)", byte(c))
}

// Arity returns the number of argument bytes the controller expects after
// the opcode.
//
// The driver never enforces it; it is used to decode a command stream.
func (c Command) Arity() int {
	switch c {
	case MemoryAddressingMode, ContrastControl, ChargePump, MultiplexRatio,
		DisplayOffset, OscillatorFrequency, PreChargePeriod,
		ComPinsConfiguration, VcomhDeselectLevel:
		return 1
	case ColumnAddress, PageAddress, VerticalScrollArea:
		return 2
	case VerticalRightHorizontalScroll, VerticalLeftHorizontalScroll:
		return 5
	case RightHorizontalScroll, LeftHorizontalScroll:
		return 6
	default:
		return 0
	}
}

// LookupCommand returns the command named s, ignoring case.
func LookupCommand(s string) (Command, bool) {
	for c, name := range commandNames {
		if strings.EqualFold(name, s) {
			return c, true
		}
	}
	return 0, false
}
