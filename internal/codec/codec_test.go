package codec

import (
	"bytes"
	"testing"
)

func TestScalarRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.AppendNumber(1234)
	b.AppendBoolean(true)
	b.AppendNull()
	b.AppendString("hello")
	b.AppendData([]byte{1, 2, 3})

	buf := b.Bytes()
	c := NewCursor(buf)

	if c.Type() != KindUint {
		t.Fatalf("expected KindUint, got %v", c.Type())
	}
	v, err := c.Value()
	if err != nil || v != 1234 {
		t.Fatalf("Value = %d, %v; want 1234, nil", v, err)
	}

	off, err := c.skip()
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	c = Cursor{buf: buf, offset: off}
	if c.Type() != KindBool {
		t.Fatalf("expected KindBool, got %v", c.Type())
	}
	v, err = c.Value()
	if err != nil || v != 1 {
		t.Fatalf("bool Value = %d, %v; want 1, nil", v, err)
	}

	off, err = c.skip()
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	c = Cursor{buf: buf, offset: off}
	if c.Type() != KindNull {
		t.Fatalf("expected KindNull, got %v", c.Type())
	}

	off, err = c.skip()
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	c = Cursor{buf: buf, offset: off}
	text, err := c.Text()
	if err != nil || text != "hello" {
		t.Fatalf("Text = %q, %v; want hello, nil", text, err)
	}

	off, err = c.skip()
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	c = Cursor{buf: buf, offset: off}
	data, err := c.Data()
	if err != nil || !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Fatalf("Data = %v, %v; want [1 2 3], nil", data, err)
	}
}

func TestArrayIteration(t *testing.T) {
	b := NewBuilder()
	b.AppendArray(3)
	b.AppendNumber(10)
	b.AppendNumber(20)
	b.AppendNumber(30)

	c := NewCursor(b.Bytes())
	if c.Type() != KindArray {
		t.Fatalf("expected KindArray, got %v", c.Type())
	}
	n, err := c.Length()
	if err != nil || n != 3 {
		t.Fatalf("Length = %d, %v; want 3, nil", n, err)
	}

	for i, want := range []uint64{10, 20, 30} {
		el, err := c.FollowIndex(i)
		if err != nil {
			t.Fatalf("FollowIndex(%d): %v", i, err)
		}
		v, err := el.Value()
		if err != nil || v != want {
			t.Fatalf("element %d = %d, %v; want %d, nil", i, v, err, want)
		}
	}

	if _, err := c.FollowIndex(3); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for out-of-range index, got %v", err)
	}
}

func TestMapFollowKey(t *testing.T) {
	b := NewBuilder()
	b.AppendMap(2)
	b.AppendString("id")
	b.AppendNumber(7)
	b.AppendString("method")
	b.AppendString("sign")

	c := NewCursor(b.Bytes())
	idVal, err := c.FollowKey("id")
	if err != nil {
		t.Fatalf("FollowKey(id): %v", err)
	}
	v, err := idVal.Value()
	if err != nil || v != 7 {
		t.Fatalf("id value = %d, %v; want 7, nil", v, err)
	}

	methodVal, err := c.FollowKey("method")
	if err != nil {
		t.Fatalf("FollowKey(method): %v", err)
	}
	method, err := methodVal.Text()
	if err != nil || method != "sign" {
		t.Fatalf("method = %q, %v; want sign, nil", method, err)
	}

	if _, err := c.FollowKey("missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenArrayMutableCount(t *testing.T) {
	b := NewBuilder()
	mark := b.OpenArray()
	count := 0
	for _, v := range []uint64{1, 2, 3, 4} {
		b.AppendNumber(v)
		count++
	}
	b.CloseArray(mark, count)

	c := NewCursor(b.Bytes())
	n, err := c.Length()
	if err != nil || n != 4 {
		t.Fatalf("Length = %d, %v; want 4, nil", n, err)
	}
	el, err := c.FollowIndex(2)
	if err != nil {
		t.Fatalf("FollowIndex(2): %v", err)
	}
	v, err := el.Value()
	if err != nil || v != 3 {
		t.Fatalf("element 2 = %d, %v; want 3, nil", v, err)
	}
}

func TestLargeTextUsesMultiByteLengthHeader(t *testing.T) {
	b := NewBuilder()
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	b.AppendString(string(long))

	c := NewCursor(b.Bytes())
	n, err := c.Length()
	if err != nil || n != 300 {
		t.Fatalf("Length = %d, %v; want 300, nil", n, err)
	}
	text, err := c.Text()
	if err != nil || len(text) != 300 {
		t.Fatalf("Text len = %d, %v; want 300, nil", len(text), err)
	}
}
