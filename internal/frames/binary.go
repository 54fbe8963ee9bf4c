package frames

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jypelle/oledanim/internal/ssd1306axi"
)

// Extension is the file extension of binary animations.
const Extension = ".oledanim"

const binaryFrameSize = 4 + 4*ssd1306axi.FrameWords

// Decode reads a binary animation: a little-endian frame count followed,
// for each frame, by its little-endian duration in milliseconds and its
// words.
func Decode(data []byte, name string) (*Animation, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("frames: %s: data too short", name)
	}
	frameCount := int(binary.LittleEndian.Uint32(data[:4]))
	expectedSize := 4 + frameCount*binaryFrameSize
	if len(data) != expectedSize {
		return nil, fmt.Errorf("frames: invalid data length for %s: expected %d, got %d", name, expectedSize, len(data))
	}
	a := &Animation{Name: name, Frames: make([]Frame, frameCount)}
	for i := range a.Frames {
		b := data[4+i*binaryFrameSize:]
		f := Frame{
			Duration: time.Duration(binary.LittleEndian.Uint32(b)) * time.Millisecond,
			Words:    make([]uint32, ssd1306axi.FrameWords),
		}
		for j := range f.Words {
			f.Words[j] = binary.LittleEndian.Uint32(b[4+4*j:])
		}
		a.Frames[i] = f
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Encode serializes a in the format read by Decode.
func Encode(a *Animation) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + len(a.Frames)*binaryFrameSize)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(a.Frames)))
	for _, f := range a.Frames {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(f.Duration/time.Millisecond))
		_ = binary.Write(&buf, binary.LittleEndian, f.Words)
	}
	return buf.Bytes()
}

// LoadFile reads an animation file. Files ending with ".inc" hold C
// initializers of frames, anything else is read as binary.
func LoadFile(path, name string) (*Animation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".inc") {
		return DecodeInc(string(data), name)
	}
	return Decode(data, name)
}

// SaveFile writes a in binary form.
func SaveFile(path string, a *Animation) error {
	return os.WriteFile(path, Encode(a), 0660)
}

var incNumber = regexp.MustCompile(`\b(0[xX][0-9a-fA-F]+|[0-9]+)\b`)

// DecodeInc reads frames written as a C initializer, each frame being its
// 128 words followed by its delay in milliseconds:
//
//	{
//	    { { 0x00000000, ... }, 100 },
//	    ...
//	};
func DecodeInc(text string, name string) (*Animation, error) {
	text = stripComments(text)
	var values []uint64
	for _, m := range incNumber.FindAllString(text, -1) {
		v, err := strconv.ParseUint(m, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("frames: %s: %w", name, err)
		}
		values = append(values, v)
	}
	const per = ssd1306axi.FrameWords + 1
	if len(values) == 0 || len(values)%per != 0 {
		return nil, fmt.Errorf("frames: %s: %d values is not a multiple of %d", name, len(values), per)
	}
	a := &Animation{Name: name}
	for i := 0; i < len(values); i += per {
		f := Frame{
			Words:    make([]uint32, ssd1306axi.FrameWords),
			Duration: time.Duration(values[i+per-1]) * time.Millisecond,
		}
		for j := range f.Words {
			f.Words[j] = uint32(values[i+j])
		}
		a.Frames = append(a.Frames, f)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)
)

func stripComments(s string) string {
	return lineComment.ReplaceAllString(blockComment.ReplaceAllString(s, ""), "")
}
