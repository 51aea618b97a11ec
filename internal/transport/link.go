package transport

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"
)

// Link is the duplex byte-frame channel a Transport runs over: one
// frame in, one frame out. Production wiring is TCPLink (a loopback
// stand-in for the real BLE characteristic, grounded on runtime_ipc.go's
// net.Listener/net.Conn pattern); tests use PipeLink.
type Link interface {
	// ReadFrame blocks for the next inbound frame's raw bytes.
	ReadFrame() ([]byte, error)
	// WriteFrame sends one outbound frame.
	WriteFrame(frame []byte) error
	Close() error
}

// PipeLink is an in-process Link backed by channels, for driving a
// Transport from tests without a real socket.
type PipeLink struct {
	in  chan []byte
	out chan []byte
}

// NewPipeLink returns a pair of PipeLinks wired to each other: frames
// written on one arrive as reads on the other.
func NewPipeLink() (local, remote *PipeLink) {
	a := make(chan []byte, 4)
	b := make(chan []byte, 4)
	return &PipeLink{in: a, out: b}, &PipeLink{in: b, out: a}
}

func (p *PipeLink) ReadFrame() ([]byte, error) {
	frame, ok := <-p.in
	if !ok {
		return nil, io.EOF
	}
	return frame, nil
}

func (p *PipeLink) WriteFrame(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	p.out <- cp
	return nil
}

func (p *PipeLink) Close() error {
	close(p.out)
	return nil
}

// TCPLink frames each write/read with a 2-byte big-endian length
// prefix over a plain TCP connection, standing in for the device's
// single writable/indicated characteristic in environments with no
// real radio (cmd/pixied's -headless-equivalent transport).
type TCPLink struct {
	conn net.Conn
	r    *bufio.Reader
}

// NewTCPLink wraps an established connection as a Link.
func NewTCPLink(conn net.Conn) *TCPLink {
	return &TCPLink{conn: conn, r: bufio.NewReader(conn)}
}

func (l *TCPLink) ReadFrame() ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(l.r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	frame := make([]byte, n)
	if _, err := io.ReadFull(l.r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func (l *TCPLink) WriteFrame(frame []byte) error {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(frame)))
	if _, err := l.conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := l.conn.Write(frame)
	return err
}

func (l *TCPLink) Close() error { return l.conn.Close() }
