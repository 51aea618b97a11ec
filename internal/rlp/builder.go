package rlp

// Builder accumulates RLP items in a single linear buffer, per
// spec.md §4.6: byte strings are written in their final canonical form
// immediately (their length is already known), arrays reserve a 5-byte
// placeholder header holding their item count until Finalize computes
// their true encoded length.
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty RLP builder.
func NewBuilder() *Builder { return &Builder{} }

// AppendData appends a byte-string item: a lone byte 0x00-0x7f needs no
// header at all, per RLP's single-byte special case.
func (b *Builder) AppendData(data []byte) {
	if len(data) == 1 && data[0] <= 0x7f {
		b.buf = append(b.buf, data[0])
		return
	}
	header, err := canonicalHeader(len(data), strShortBase, strLongBase)
	if err != nil {
		// Only reachable for a >~4GiB payload, impossible on this
		// device; keep Builder's API panic-free by encoding nothing.
		return
	}
	b.buf = append(b.buf, header...)
	b.buf = append(b.buf, data...)
}

// AppendUint appends an unsigned integer using RLP's scalar convention
// (leading-zero-stripped big-endian, zero as an empty string).
func (b *Builder) AppendUint(v uint64) {
	b.AppendData(EncodeUint(v))
}

// OpenArray reserves a placeholder array header and returns a mark to
// pass to CloseArray once every child item has been appended.
func (b *Builder) OpenArray() int {
	mark := len(b.buf)
	b.buf = append(b.buf, reservedArrayTag, 0, 0, 0, 0)
	return mark
}

// CloseArray records how many child items were appended since mark was
// opened.
func (b *Builder) CloseArray(mark, count int) {
	b.buf[mark+1] = byte(count >> 24)
	b.buf[mark+2] = byte(count >> 16)
	b.buf[mark+3] = byte(count >> 8)
	b.buf[mark+4] = byte(count)
}

// Finalize recursively walks the buffer from its single root item,
// computing each reserved array's canonical header from its children's
// true encoded lengths, and returns the canonical encoding.
func (b *Builder) Finalize() ([]byte, error) {
	enc, next, err := finalizeOne(b.buf, 0)
	if err != nil {
		return nil, err
	}
	if next != len(b.buf) {
		return nil, ErrBufferOverrun
	}
	return enc, nil
}

func read4BE(b []byte) int {
	return int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
}

func finalizeOne(buf []byte, offset int) (encoded []byte, next int, err error) {
	if offset >= len(buf) {
		return nil, 0, ErrBufferOverrun
	}

	if buf[offset] == reservedArrayTag {
		if offset+5 > len(buf) {
			return nil, 0, ErrBufferOverrun
		}
		count := read4BE(buf[offset+1 : offset+5])
		cur := offset + 5

		payloadLen := 0
		children := make([][]byte, 0, count)
		for i := 0; i < count; i++ {
			child, n, err := finalizeOne(buf, cur)
			if err != nil {
				return nil, 0, err
			}
			children = append(children, child)
			payloadLen += len(child)
			cur = n
		}

		header, err := canonicalHeader(payloadLen, listShortBase, listLongBase)
		if err != nil {
			return nil, 0, err
		}
		out := make([]byte, 0, len(header)+payloadLen)
		out = append(out, header...)
		for _, child := range children {
			out = append(out, child...)
		}
		return out, cur, nil
	}

	b0 := buf[offset]
	switch {
	case b0 <= 0x7f:
		return buf[offset : offset+1], offset + 1, nil
	case b0 <= strLongBase:
		n := int(b0 - strShortBase)
		end := offset + 1 + n
		if end > len(buf) {
			return nil, 0, ErrBufferOverrun
		}
		return buf[offset:end], end, nil
	case b0 <= 0xbf:
		lenOfLen := int(b0 - strLongBase)
		if offset+1+lenOfLen > len(buf) {
			return nil, 0, ErrBufferOverrun
		}
		n := 0
		for _, d := range buf[offset+1 : offset+1+lenOfLen] {
			n = n<<8 | int(d)
		}
		end := offset + 1 + lenOfLen + n
		if end > len(buf) {
			return nil, 0, ErrBufferOverrun
		}
		return buf[offset:end], end, nil
	default:
		// Only a reserved array placeholder (handled above) or a
		// string item (0x00-0xbf) can appear in an unfinalized
		// buffer; anything else indicates builder misuse.
		return nil, 0, ErrBufferOverrun
	}
}
