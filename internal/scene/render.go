package scene

import "encoding/binary"

// Render draws the current render list into frag, a width*fragmentHeight
// buffer of 16-bit RGB565 pixels stored as little-endian bytes (2 bytes
// per pixel), for the horizontal slice starting at y0 with the given
// height, per spec.md §4.1 and the wire shape in spec.md §6.5.
func (a *Arena) Render(frag []byte, screenWidth int32, y0, height int32) {
	stride := screenWidth * 2
	idx := a.renderHead
	for idx >= 0 {
		n := &a.nodes[idx]
		if n.renderFn != nil {
			n.renderFn(Point{X: n.x, Y: n.y}, n.a, n.b, frag, stride, y0, height)
		}
		idx = n.next
	}
}

func putPixel(frag []byte, stride, x, y int32, c Color) {
	off := y*stride + x*2
	if off < 0 || int(off)+1 >= len(frag) {
		return
	}
	frag[off] = byte(c)
	frag[off+1] = byte(c >> 8)
}

// clipRows computes the [startRow, endRow) range, relative to the node's
// own top edge, that overlaps the fragment [y0, y0+height).
func clipRows(nodeY, nodeHeight, y0, height int32) (start, end int32) {
	top := y0 - nodeY
	if top < 0 {
		top = 0
	}
	bottom := y0 + height - nodeY
	if bottom > nodeHeight {
		bottom = nodeHeight
	}
	if bottom < top {
		bottom = top
	}
	return top, bottom
}

// renderFill is optimized to a 32-bit-per-store fill of the entire
// fragment, per spec.md §4.1 ("two 16-bit colors in one 32-bit word").
func renderFill(pos Point, a, b Property, frag []byte, stride, y0, height int32) {
	c := a.Color
	packed := uint32(c) | uint32(c)<<16
	for i := 0; i+3 < len(frag); i += 4 {
		binary.LittleEndian.PutUint32(frag[i:], packed)
	}
}

func renderBox(pos Point, a, b Property, frag []byte, stride, y0, height int32) {
	size := a.Size
	color := b.Color
	screenWidth := stride / 2

	start, end := clipRows(int32(pos.Y), int32(size.Height), y0, height)
	for row := start; row < end; row++ {
		worldY := int32(pos.Y) + row - y0
		for col := int32(0); col < int32(size.Width); col++ {
			worldX := int32(pos.X) + col
			if worldX < 0 || worldX >= screenWidth {
				continue
			}
			putPixel(frag, stride, worldX, worldY, color)
		}
	}
}

func renderImage(pos Point, a, b Property, frag []byte, stride, y0, height int32) {
	img := a.Image
	if img == nil {
		return
	}
	screenWidth := stride / 2

	start, end := clipRows(int32(pos.Y), int32(img.Height), y0, height)
	for row := start; row < end; row++ {
		worldY := int32(pos.Y) + row - y0
		rowBase := int(row) * int(img.Width)
		for col := int32(0); col < int32(img.Width); col++ {
			worldX := int32(pos.X) + col
			if worldX < 0 || worldX >= screenWidth {
				continue
			}
			putPixel(frag, stride, worldX, worldY, Color(img.Pixels[rowBase+int(col)]))
		}
	}
}

func renderText(pos Point, a, b Property, frag []byte, stride, y0, height int32) {
	if a.Data == nil {
		return
	}
	data := *a.Data
	info := b.Text
	color := b.Color
	screenWidth := stride / 2

	n := int(info.Length)
	if n > len(data) {
		n = len(data)
	}
	drawGlyphRow(data[:n], pos, color, frag, stride, screenWidth, y0, height)
}
