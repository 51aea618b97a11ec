package codec

// Cursor reads one self-describing value out of an immutable byte
// slice, per spec.md §4.5. Data borrows a sub-slice of the underlying
// buffer; CopyData copies into a caller-supplied buffer and Text copies
// into a new string.
type Cursor struct {
	buf    []byte
	offset int
}

// NewCursor creates a cursor over buf starting at its first value.
func NewCursor(buf []byte) Cursor {
	return Cursor{buf: buf, offset: 0}
}

// Clone returns an independent copy of the cursor's current position.
func (c Cursor) Clone() Cursor { return c }

// header decodes the (major, info, value, headerLen) of the value at
// the cursor's current offset.
func (c Cursor) header() (m major, info byte, value uint64, headerLen int, err error) {
	if c.offset >= len(c.buf) {
		return 0, 0, 0, 0, ErrBufferOverrun
	}
	b := c.buf[c.offset]
	m = headerMajor(b)
	info = headerInfo(b)

	if info < 24 {
		return m, info, uint64(info), 1, nil
	}

	var nBytes int
	switch info {
	case 24:
		nBytes = 1
	case 25:
		nBytes = 2
	case 26:
		nBytes = 4
	case 27:
		nBytes = 8
	default:
		return m, info, 0, 0, ErrUnsupportedType
	}
	if c.offset+1+nBytes > len(c.buf) {
		return 0, 0, 0, 0, ErrBufferOverrun
	}
	var v uint64
	for i := 0; i < nBytes; i++ {
		v = v<<8 | uint64(c.buf[c.offset+1+i])
	}
	return m, info, v, 1 + nBytes, nil
}

// Type reports the decoded kind of the value at the cursor.
func (c Cursor) Type() Kind {
	m, info, _, _, err := c.header()
	if err != nil {
		return KindInvalid
	}
	switch m {
	case majorUint:
		return KindUint
	case majorBytes:
		return KindBytes
	case majorText:
		return KindText
	case majorArray:
		return KindArray
	case majorMap:
		return KindMap
	case majorSimple:
		switch info {
		case infoFalse, infoTrue:
			return KindBool
		case infoNull:
			return KindNull
		}
	}
	return KindInvalid
}

// Value returns a scalar value's payload: the integer for KindUint, or
// 0/1 for KindBool. It is ErrInvalidOperation for container/text/bytes
// kinds.
func (c Cursor) Value() (uint64, error) {
	m, info, v, _, err := c.header()
	if err != nil {
		return 0, err
	}
	switch m {
	case majorUint:
		return v, nil
	case majorSimple:
		if info == infoTrue {
			return 1, nil
		}
		if info == infoFalse {
			return 0, nil
		}
	}
	return 0, ErrInvalidOperation
}

// dataSpan returns the [start,end) byte range of a bytes/text value's
// payload within the cursor's buffer.
func (c Cursor) dataSpan() (start, end int, err error) {
	m, _, v, headerLen, err := c.header()
	if err != nil {
		return 0, 0, err
	}
	if m != majorBytes && m != majorText {
		return 0, 0, ErrInvalidOperation
	}
	if v > uint64(^uint32(0)) {
		return 0, 0, ErrOverflow
	}
	start = c.offset + headerLen
	end = start + int(v)
	if end > len(c.buf) {
		return 0, 0, ErrBufferOverrun
	}
	return start, end, nil
}

// Data borrows the raw bytes of a KindBytes/KindText value.
func (c Cursor) Data() ([]byte, error) {
	start, end, err := c.dataSpan()
	if err != nil {
		return nil, err
	}
	return c.buf[start:end], nil
}

// Text is a convenience wrapper over Data for KindText values.
func (c Cursor) Text() (string, error) {
	data, err := c.Data()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CopyData copies a KindBytes/KindText value's payload into dst,
// returning the number of bytes copied. ErrTruncated if dst is smaller
// than the value.
func (c Cursor) CopyData(dst []byte) (int, error) {
	start, end, err := c.dataSpan()
	if err != nil {
		return 0, err
	}
	n := end - start
	if len(dst) < n {
		return 0, ErrTruncated
	}
	return copy(dst, c.buf[start:end]), nil
}

// Length returns a container's child count (array element count or map
// pair count) or a bytes/text value's byte length.
func (c Cursor) Length() (int, error) {
	m, _, v, _, err := c.header()
	if err != nil {
		return 0, err
	}
	switch m {
	case majorArray, majorMap, majorBytes, majorText:
		if v > uint64(^uint32(0)) {
			return 0, ErrOverflow
		}
		return int(v), nil
	}
	return 0, ErrInvalidOperation
}

// skip advances past one fully-encoded value (scalar, string, or
// recursively a container) and returns the offset just past it.
func (c Cursor) skip() (int, error) {
	m, _, v, headerLen, err := c.header()
	if err != nil {
		return 0, err
	}
	next := c.offset + headerLen

	switch m {
	case majorUint, majorSimple:
		return next, nil
	case majorBytes, majorText:
		if v > uint64(^uint32(0)) {
			return 0, ErrOverflow
		}
		next += int(v)
		if next > len(c.buf) {
			return 0, ErrBufferOverrun
		}
		return next, nil
	case majorArray:
		cur := Cursor{buf: c.buf, offset: next}
		for i := uint64(0); i < v; i++ {
			n, err := cur.skip()
			if err != nil {
				return 0, err
			}
			cur.offset = n
		}
		return cur.offset, nil
	case majorMap:
		cur := Cursor{buf: c.buf, offset: next}
		for i := uint64(0); i < v*2; i++ {
			n, err := cur.skip()
			if err != nil {
				return 0, err
			}
			cur.offset = n
		}
		return cur.offset, nil
	}
	return 0, ErrUnsupportedType
}

// FirstValue positions key (for a map, the entry's key cursor; nil
// otherwise) and value at a container's first element, per spec.md
// §4.5's iterate-a-container contract.
func (c Cursor) FirstValue() (key *Cursor, value Cursor, ok bool, err error) {
	m, _, v, headerLen, err := c.header()
	if err != nil {
		return nil, Cursor{}, false, err
	}
	if m != majorArray && m != majorMap {
		return nil, Cursor{}, false, ErrInvalidOperation
	}
	if v == 0 {
		return nil, Cursor{}, false, nil
	}
	start := c.offset + headerLen
	if m == majorMap {
		k := Cursor{buf: c.buf, offset: start}
		valOff, err := k.skip()
		if err != nil {
			return nil, Cursor{}, false, err
		}
		return &k, Cursor{buf: c.buf, offset: valOff}, true, nil
	}
	return nil, Cursor{buf: c.buf, offset: start}, true, nil
}

// NextValue advances from the current container element (value, and its
// paired key cursor if iterating a map) to the next one.
func (c Cursor) NextValue(key *Cursor, value Cursor) (nextKey *Cursor, nextValue Cursor, ok bool, err error) {
	after, err := value.skip()
	if err != nil {
		return nil, Cursor{}, false, err
	}
	if key == nil {
		// Peek: if nothing follows within the parent container, caller
		// is responsible for tracking remaining count; Cursor alone
		// cannot tell array-end from "another value follows" without
		// the parent's count (FollowIndex below checks the index
		// against that count itself).
		return nil, Cursor{buf: value.buf, offset: after}, true, nil
	}
	k := Cursor{buf: c.buf, offset: after}
	valOff, err := k.skip()
	if err != nil {
		return nil, Cursor{}, false, err
	}
	return &k, Cursor{buf: c.buf, offset: valOff}, true, nil
}

// FollowIndex returns the idx-th element of an array value.
func (c Cursor) FollowIndex(idx int) (Cursor, error) {
	m, _, v, headerLen, err := c.header()
	if err != nil {
		return Cursor{}, err
	}
	if m != majorArray {
		return Cursor{}, ErrInvalidOperation
	}
	if idx < 0 || uint64(idx) >= v {
		return Cursor{}, ErrNotFound
	}
	cur := Cursor{buf: c.buf, offset: c.offset + headerLen}
	for i := 0; i < idx; i++ {
		n, err := cur.skip()
		if err != nil {
			return Cursor{}, err
		}
		cur.offset = n
	}
	return cur, nil
}

// FollowKey locates a map entry by key string.
func (c Cursor) FollowKey(key string) (Cursor, error) {
	m, _, v, headerLen, err := c.header()
	if err != nil {
		return Cursor{}, err
	}
	if m != majorMap {
		return Cursor{}, ErrInvalidOperation
	}
	cur := Cursor{buf: c.buf, offset: c.offset + headerLen}
	for i := uint64(0); i < v; i++ {
		k := Cursor{buf: c.buf, offset: cur.offset}
		valOff, err := k.skip()
		if err != nil {
			return Cursor{}, err
		}
		val := Cursor{buf: c.buf, offset: valOff}
		if k.Type() == KindText {
			if text, err := k.Text(); err == nil && text == key {
				return val, nil
			}
		}
		next, err := val.skip()
		if err != nil {
			return Cursor{}, err
		}
		cur.offset = next
	}
	return Cursor{}, ErrNotFound
}
