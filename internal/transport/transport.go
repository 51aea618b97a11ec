// Package transport implements the framed serial message layer of
// spec.md §4.3: it accumulates a message body across one or more
// request frames, verifies a SHA-256 integrity prefix, hands the
// decoded payload to the message layer above it, and chunks replies
// back out in the same frame shape.
//
// The goroutine-plus-channel shape mirrors the teacher's IPC server
// (runtime_ipc.go: Start spawns an accept loop, Stop closes the
// listener and waits on a done channel) generalized from a TCP accept
// loop to a single full-duplex Link.
package transport

import (
	"bytes"
	"crypto/sha256"
	"errors"

	"github.com/firefly/pixie-firmware-sub000/internal/codec"
	"github.com/firefly/pixie-firmware-sub000/internal/diag"
)

// Command is a request frame's leading command byte (spec.md §6.1).
type Command byte

const (
	CmdReset    Command = 0x02
	CmdQuery    Command = 0x03
	CmdStart    Command = 0x06
	CmdContinue Command = 0x07
)

// Status is a response frame's leading status byte (spec.md §4.3).
type Status byte

const (
	StatusOK                Status = 0x00
	StatusSuppress          Status = 0x7f
	StatusUnsupportedVer    Status = 0x81
	StatusBadCommand        Status = 0x82
	StatusBufferOverrun     Status = 0x84
	StatusMissingMessage    Status = 0x85
	StatusBusy              Status = 0x91
	StatusUnknown           Status = 0x8f
)

// State is the receive-side state machine of spec.md §4.3.
type State int

const (
	stateReady State = iota
	stateReceiving
	stateReceived
	stateProcessing
	stateSending
)

// Exported aliases for the states callers observe via Transport.State().
const (
	Ready      = stateReady
	Receiving  = stateReceiving
	Received   = stateReceived
	Processing = stateProcessing
	Sending    = stateSending
)

const (
	maxChunk      = 506
	digestLen     = 32
	protoVersion  = 1
)

// Error values naming the protocol failures. Transport's handlers do not
// return them; they report the same conditions as the Status bytes
// StatusBusy, StatusMissingMessage and StatusBufferOverrun.
var (
	// ErrBusy names a second START arriving mid-receive.
	ErrBusy = errors.New("transport: busy")
	// ErrMissingMessage names an out-of-order or stray CONTINUE.
	ErrMissingMessage = errors.New("transport: missing or out-of-sequence message")
	// ErrBufferOverrun names a frame whose declared length or offset
	// would exceed the receive buffer.
	ErrBufferOverrun = errors.New("transport: buffer overrun")
)

// Identity is the device's model/serial pair, reported by QUERY
// (spec.md §6.1). cmd/pixied fills it from the same model/serial flags
// it loads into the attest store.
type Identity struct {
	Model  uint32
	Serial uint32
}

// Message is a decoded, integrity-checked request body ready for
// dispatch to the panel/message layer (spec.md §4.3 "Delivery").
type Message struct {
	ID     uint64
	Method string
	Params codec.Cursor
}

// Transport implements the receive state machine and reply chunker
// over a single Link. It is not safe for concurrent use from more than
// one goroutine; the caller (the transport task) serializes frame
// delivery and reply submission.
type Transport struct {
	identity Identity
	log      *diag.Monitor

	state State

	total    int
	received int
	buf      []byte

	sendBuf []byte
	sendOff int
}

// New creates a Transport reporting identity via QUERY and logging
// drop/error counters to log (a nil log gets a private Monitor).
func New(identity Identity, log *diag.Monitor) *Transport {
	if log == nil {
		log = diag.NewMonitor(0)
	}
	return &Transport{identity: identity, log: log, state: stateReady}
}

// State reports the current receive/send state.
func (t *Transport) State() State { return t.state }

// HandleQuery builds the QUERY response body: version, current
// (offset, length), model, serial — spec.md §6.1.
func (t *Transport) HandleQuery() []byte {
	out := make([]byte, 0, 2+1+2+2+4+4)
	out = append(out, byte(StatusOK), byte(CmdQuery), protoVersion)
	out = append(out, byte(t.received>>8), byte(t.received))
	out = append(out, byte(t.total>>8), byte(t.total))
	out = append(out, be32(t.identity.Model)...)
	out = append(out, be32(t.identity.Serial)...)
	return out
}

// HandleReset drops any in-flight receive (or send) and returns to
// ready. A RESET is idempotent: resetting twice leaves the transport
// in ready both times.
func (t *Transport) HandleReset() {
	t.state = stateReady
	t.total = 0
	t.received = 0
	t.buf = nil
	t.sendBuf = nil
	t.sendOff = 0
}

// HandleStart begins a new receive. totalLen is the declared full
// message length (integrity prefix included); payload is the first
// chunk's bytes.
func (t *Transport) HandleStart(totalLen int, payload []byte) (Status, *Message) {
	if t.state == stateReceiving || t.state == stateReceived || t.state == stateProcessing || t.state == stateSending {
		t.log.Count("transport-busy")
		return StatusBusy, nil
	}
	if totalLen < digestLen || len(payload) > maxChunk || len(payload) > totalLen {
		t.log.Count("transport-buffer-overrun")
		return StatusBufferOverrun, nil
	}

	t.total = totalLen
	t.buf = make([]byte, 0, totalLen)
	t.buf = append(t.buf, payload...)
	t.received = len(payload)

	if t.received >= t.total {
		return t.finishReceive()
	}
	t.state = stateReceiving
	return StatusOK, nil
}

// HandleContinue appends the next chunk at expectedOffset, per spec.md
// §4.3: out-of-order, overlong, or stray CONTINUE is a protocol error
// that leaves state unchanged.
func (t *Transport) HandleContinue(expectedOffset int, payload []byte) (Status, *Message) {
	if t.state != stateReceiving {
		t.log.Count("transport-missing-message")
		return StatusMissingMessage, nil
	}
	if expectedOffset != t.received || len(payload) > maxChunk || t.received+len(payload) > t.total {
		t.log.Count("transport-missing-message")
		return StatusMissingMessage, nil
	}

	t.buf = append(t.buf, payload...)
	t.received += len(payload)

	if t.received >= t.total {
		return t.finishReceive()
	}
	return StatusOK, nil
}

// finishReceive verifies the integrity digest and, on success, decodes
// the body and transitions to received; a digest mismatch or malformed
// body silently drops the message and returns to ready (spec.md §4.3
// "Integrity"/"Decoding").
func (t *Transport) finishReceive() (Status, *Message) {
	body := t.buf
	if len(body) < digestLen {
		t.HandleReset()
		return StatusBufferOverrun, nil
	}

	want := body[:digestLen]
	rest := body[digestLen:]
	got := sha256.Sum256(rest)
	if !bytes.Equal(want, got[:]) {
		t.log.Count("digest-mismatch")
		t.HandleReset()
		return StatusSuppress, nil
	}

	msg, ok := decodeMessage(rest)
	if !ok {
		t.log.Count("decode-dropped")
		t.HandleReset()
		return StatusSuppress, nil
	}

	t.state = stateReceived
	return StatusSuppress, &msg
}

// Accept transitions a received message to processing, per spec.md
// §4.3's accept(id) contract, and reports whether the transport was
// actually holding a received message to accept.
func (t *Transport) Accept() bool {
	if t.state != stateReceived {
		return false
	}
	t.state = stateProcessing
	return true
}

// BeginReply computes the reply digest, stores the framed body, and
// transitions to sending, per spec.md §4.3 "Reply".
func (t *Transport) BeginReply(body []byte) {
	digest := sha256.Sum256(body)
	full := make([]byte, 0, digestLen+len(body))
	full = append(full, digest[:]...)
	full = append(full, body...)

	t.sendBuf = full
	t.sendOff = 0
	t.state = stateSending
}

// NextChunk returns the next outbound frame (command + header +
// payload) while sending, per spec.md §4.3 "Outbound chunking". It
// returns ok=false once nothing remains to send.
func (t *Transport) NextChunk() (frame []byte, ok bool) {
	if t.state != stateSending {
		return nil, false
	}
	remaining := len(t.sendBuf) - t.sendOff
	if remaining <= 0 {
		return nil, false
	}
	n := remaining
	if n > maxChunk {
		n = maxChunk
	}
	chunk := t.sendBuf[t.sendOff : t.sendOff+n]

	var out []byte
	if t.sendOff == 0 {
		out = append(out, byte(CmdStart), byte(len(t.sendBuf)>>8), byte(len(t.sendBuf)))
	} else {
		out = append(out, byte(CmdContinue), byte(t.sendOff>>8), byte(t.sendOff))
	}
	out = append(out, chunk...)
	return out, true
}

// AckChunk advances the send offset by n bytes after the peer
// acknowledges a chunk's indication, returning to ready once the full
// reply has been delivered.
func (t *Transport) AckChunk(n int) {
	t.sendOff += n
	if t.sendOff >= len(t.sendBuf) {
		t.HandleReset()
	}
}

func decodeMessage(body []byte) (Message, bool) {
	c := codec.NewCursor(body)
	idCursor, err := c.FollowKey("id")
	if err != nil {
		return Message{}, false
	}
	id, err := idCursor.Value()
	if err != nil || id > 1<<31-1 {
		return Message{}, false
	}

	methodCursor, err := c.FollowKey("method")
	if err != nil {
		return Message{}, false
	}
	method, err := methodCursor.Text()
	if err != nil || len(method) > 31 {
		return Message{}, false
	}

	params, err := c.FollowKey("params")
	if err != nil {
		return Message{}, false
	}
	switch params.Type() {
	case codec.KindArray, codec.KindMap:
	default:
		return Message{}, false
	}

	return Message{ID: id, Method: method, Params: params}, true
}

func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
