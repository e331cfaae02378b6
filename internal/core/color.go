package core

// kellyPalette holds 19 well separated hues.
var kellyPalette = [...]uint32{
	0xF3C300, 0x875692, 0xA1CAF1, 0xBE0032, 0xC2B280, 0x848482, 0x008856, 0xE68FAC, 0x0067A5,
	0xF99379, 0x604E97, 0xF6A600, 0xB3446C, 0xDCD300, 0x882D17, 0x8DB600, 0x654522, 0xE25822,
	0x2B3D26,
}

// ColorAllocator hands out opaque palette colours in a fixed order, so the
// colours of new strands only depend on how many were created before.
type ColorAllocator struct {
	idx int
}

// Next returns the next colour as 0xAARRGGBB.
func (a *ColorAllocator) Next() uint32 {
	c := 0xFF000000 | kellyPalette[a.idx%len(kellyPalette)]
	a.idx++
	return c
}

// Index returns the number of colours allocated so far.
func (a ColorAllocator) Index() int { return a.idx }
