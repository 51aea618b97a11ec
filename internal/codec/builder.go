package codec

// Builder appends self-describing values to an in-memory buffer, per
// spec.md §4.5. Arrays and maps opened with AppendArray/AppendMap must
// know their element count up front; OpenArray/OpenMap support the
// mutable-length case, patching the count in after the fact.
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// Bytes returns the builder's accumulated buffer.
func (b *Builder) Bytes() []byte { return b.buf }

func appendHeader(buf []byte, m major, value uint64) []byte {
	switch {
	case value < 24:
		return append(buf, byte(m)<<5|byte(value))
	case value <= 0xff:
		return append(buf, byte(m)<<5|24, byte(value))
	case value <= 0xffff:
		return append(buf, byte(m)<<5|25, byte(value>>8), byte(value))
	case value <= 0xffffffff:
		return append(buf, byte(m)<<5|26,
			byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
	default:
		return append(buf, byte(m)<<5|27,
			byte(value>>56), byte(value>>48), byte(value>>40), byte(value>>32),
			byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
	}
}

// AppendBoolean appends a boolean value.
func (b *Builder) AppendBoolean(v bool) {
	info := infoFalse
	if v {
		info = infoTrue
	}
	b.buf = append(b.buf, byte(majorSimple)<<5|info)
}

// AppendNull appends a null value.
func (b *Builder) AppendNull() {
	b.buf = append(b.buf, byte(majorSimple)<<5|infoNull)
}

// AppendNumber appends an unsigned integer value.
func (b *Builder) AppendNumber(v uint64) {
	b.buf = appendHeader(b.buf, majorUint, v)
}

// AppendData appends a byte-string value.
func (b *Builder) AppendData(data []byte) {
	b.buf = appendHeader(b.buf, majorBytes, uint64(len(data)))
	b.buf = append(b.buf, data...)
}

// AppendString appends a text-string value.
func (b *Builder) AppendString(s string) {
	b.buf = appendHeader(b.buf, majorText, uint64(len(s)))
	b.buf = append(b.buf, s...)
}

// AppendArray appends an array header for a known element count; the
// caller appends exactly count values next.
func (b *Builder) AppendArray(count int) {
	b.buf = appendHeader(b.buf, majorArray, uint64(count))
}

// AppendMap appends a map header for a known pair count; the caller
// appends exactly count (key, value) pairs next.
func (b *Builder) AppendMap(count int) {
	b.buf = appendHeader(b.buf, majorMap, uint64(count))
}

// openMark is returned by OpenArray/OpenMap: the offset of the header
// to patch once the element count is known.
type openMark struct {
	headerOffset int
	isMap        bool
}

// OpenArray reserves a 5-byte (major/info=26, 4-byte count) header for
// an array whose element count isn't known yet, and returns a mark to
// pass to CloseArray once every element has been appended.
func (b *Builder) OpenArray() openMark {
	mark := openMark{headerOffset: len(b.buf)}
	b.buf = append(b.buf, byte(majorArray)<<5|26, 0, 0, 0, 0)
	return mark
}

// OpenMap is OpenArray's map equivalent.
func (b *Builder) OpenMap() openMark {
	mark := openMark{headerOffset: len(b.buf), isMap: true}
	b.buf = append(b.buf, byte(majorMap)<<5|26, 0, 0, 0, 0)
	return mark
}

// CloseArray/CloseMap patch the reserved header with the actual element
// (or pair) count observed since Open*.
func (b *Builder) closeCount(mark openMark, count int) {
	h := b.buf[mark.headerOffset : mark.headerOffset+5]
	m := majorArray
	if mark.isMap {
		m = majorMap
	}
	h[0] = byte(m)<<5 | 26
	h[1] = byte(count >> 24)
	h[2] = byte(count >> 16)
	h[3] = byte(count >> 8)
	h[4] = byte(count)
}

// CloseArray finalizes an OpenArray'd header with the number of elements
// appended since it was opened.
func (b *Builder) CloseArray(mark openMark, count int) { b.closeCount(mark, count) }

// CloseMap finalizes an OpenMap'd header with the number of pairs
// appended since it was opened.
func (b *Builder) CloseMap(mark openMark, count int) { b.closeCount(mark, count) }

// AppendRaw appends another builder's (or cursor value's) already-
// encoded bytes verbatim, for composing builders.
func (b *Builder) AppendRaw(data []byte) {
	b.buf = append(b.buf, data...)
}
