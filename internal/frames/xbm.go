package frames

import (
	"fmt"
	"image"
	"regexp"
	"strconv"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

var (
	xbmDefine = regexp.MustCompile(`#define\s+\w*?_?(width|height)\s+(\d+)`)
	xbmBits   = regexp.MustCompile(`(?s)(char|short)\s+\w+\s*\[\s*\]\s*=\s*\{(.*?)\}`)
	xbmValue  = regexp.MustCompile(`0[xX][0-9a-fA-F]+|\d+`)
)

// DecodeXBM parses an X bitmap, in either the X11 (char) or the X10 (short)
// flavor. Set bits are On pixels; within an element the leftmost pixel is
// the least significant bit and every row starts on a new element.
func DecodeXBM(src []byte) (*image1bit.VerticalLSB, error) {
	text := stripComments(string(src))
	width, height := 0, 0
	for _, m := range xbmDefine.FindAllStringSubmatch(text, -1) {
		v, _ := strconv.Atoi(m[2])
		if m[1] == "width" {
			width = v
		} else {
			height = v
		}
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frames: xbm: missing or invalid dimensions %dx%d", width, height)
	}
	body := xbmBits.FindStringSubmatch(text)
	if body == nil {
		return nil, fmt.Errorf("frames: xbm: missing bits array")
	}
	bitsPerElem := 8
	if body[1] == "short" {
		bitsPerElem = 16
	}
	var elems []uint64
	for _, v := range xbmValue.FindAllString(body[2], -1) {
		n, err := strconv.ParseUint(v, 0, bitsPerElem)
		if err != nil {
			return nil, fmt.Errorf("frames: xbm: %w", err)
		}
		elems = append(elems, n)
	}
	perRow := (width + bitsPerElem - 1) / bitsPerElem
	if len(elems) < perRow*height {
		return nil, fmt.Errorf("frames: xbm: got %d elements, want %d", len(elems), perRow*height)
	}
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			e := elems[y*perRow+x/bitsPerElem]
			if e&(1<<uint(x%bitsPerElem)) != 0 {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
	return img, nil
}
