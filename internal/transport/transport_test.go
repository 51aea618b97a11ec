package transport

import (
	"crypto/sha256"
	"testing"

	"github.com/firefly/pixie-firmware-sub000/internal/codec"
)

func buildBody(id uint64, method string, paramCount int, fill func(b *codec.Builder)) []byte {
	b := codec.NewBuilder()
	b.AppendMap(3)
	b.AppendString("id")
	b.AppendNumber(id)
	b.AppendString("method")
	b.AppendString(method)
	b.AppendString("params")
	if fill != nil {
		fill(b)
	} else {
		b.AppendArray(0)
	}
	return b.Bytes()
}

func framed(body []byte) []byte {
	digest := sha256.Sum256(body)
	out := make([]byte, 0, len(digest)+len(body))
	out = append(out, digest[:]...)
	out = append(out, body...)
	return out
}

func TestChunkedIngestFiresMessageOnce(t *testing.T) {
	body := buildBody(1, "sign", 0, nil)
	// pad body so the full framed payload is exactly 1500 bytes.
	for len(body)+32 < 1500 {
		body = append(body, 0)
	}
	full := framed(body)
	if len(full) != 1500 {
		t.Fatalf("test setup: framed length = %d, want 1500", len(full))
	}

	tr := New(Identity{Model: 1, Serial: 2}, nil)

	status, msg := tr.HandleStart(len(full), full[:506])
	if status != StatusOK || msg != nil {
		t.Fatalf("HandleStart: status=%v msg=%v, want OK/nil", status, msg)
	}
	if tr.State() != Receiving {
		t.Fatalf("state = %v, want Receiving", tr.State())
	}

	status, msg = tr.HandleContinue(506, full[506:1012])
	if status != StatusOK || msg != nil {
		t.Fatalf("first CONTINUE: status=%v msg=%v, want OK/nil", status, msg)
	}

	status, msg = tr.HandleContinue(1012, full[1012:1500])
	if msg == nil {
		t.Fatalf("final CONTINUE: expected a decoded message, got none (status=%v)", status)
	}
	if msg.ID != 1 || msg.Method != "sign" {
		t.Fatalf("decoded message = %+v, want id=1 method=sign", msg)
	}
	if tr.State() != Received {
		t.Fatalf("state = %v, want Received", tr.State())
	}
}

func TestResetMidReceiveCancelsWithNoEvent(t *testing.T) {
	body := buildBody(1, "sign", 0, nil)
	for len(body)+32 < 1500 {
		body = append(body, 0)
	}
	full := framed(body)

	tr := New(Identity{}, nil)
	tr.HandleStart(len(full), full[:506])
	tr.HandleContinue(506, full[506:1012])

	tr.HandleReset()
	if tr.State() != Ready {
		t.Fatalf("state after RESET = %v, want Ready", tr.State())
	}

	// A subsequent CONTINUE must not resume the cancelled receive.
	status, msg := tr.HandleContinue(1012, full[1012:1500])
	if msg != nil {
		t.Fatalf("CONTINUE after RESET produced a message, want none")
	}
	if status != StatusMissingMessage {
		t.Fatalf("status = %v, want StatusMissingMessage", status)
	}
}

func TestIntegrityMismatchDropsSilentlyAndResetsFresh(t *testing.T) {
	body := buildBody(1, "sign", 0, nil)
	for len(body) < 20 {
		body = append(body, 0)
	}
	full := framed(body)
	// Flip body byte 17 (0-based, past the 32-byte digest prefix) so
	// the recomputed digest no longer matches.
	full[32+17] ^= 0xff

	tr := New(Identity{}, nil)
	status, msg := tr.HandleStart(len(full), full)
	if msg != nil {
		t.Fatalf("expected no message on digest mismatch, got %+v", msg)
	}
	if status != StatusSuppress {
		t.Fatalf("status = %v, want StatusSuppress", status)
	}
	if tr.State() != Ready {
		t.Fatalf("state after mismatch = %v, want Ready", tr.State())
	}

	// Next START begins fresh.
	body2 := buildBody(2, "sign", 0, nil)
	full2 := framed(body2)
	status, msg = tr.HandleStart(len(full2), full2)
	if msg == nil {
		t.Fatalf("fresh START after mismatch: expected a decoded message")
	}
	if msg.ID != 2 {
		t.Fatalf("fresh message id = %d, want 2", msg.ID)
	}
	_ = status
}

func TestDoubleResetStaysReady(t *testing.T) {
	tr := New(Identity{}, nil)
	tr.HandleReset()
	tr.HandleReset()
	if tr.State() != Ready {
		t.Fatalf("state = %v, want Ready", tr.State())
	}
}

func TestSecondStartWhileReceivingIsBusy(t *testing.T) {
	body := buildBody(1, "sign", 0, nil)
	for len(body)+32 < 700 {
		body = append(body, 0)
	}
	full := framed(body)

	tr := New(Identity{}, nil)
	tr.HandleStart(len(full), full[:400])

	status, msg := tr.HandleStart(len(full), full[:400])
	if status != StatusBusy || msg != nil {
		t.Fatalf("second START: status=%v msg=%v, want Busy/nil", status, msg)
	}
}

func TestStartWhileSendingIsBusy(t *testing.T) {
	tr := New(Identity{}, nil)
	tr.state = stateSending
	tr.sendBuf = make([]byte, 32+10)

	status, msg := tr.HandleStart(100, make([]byte, 10))
	if status != StatusBusy || msg != nil {
		t.Fatalf("START while sending: status=%v msg=%v, want Busy/nil", status, msg)
	}
}

func TestReplyChunkingStartsAtZeroThenContinues(t *testing.T) {
	tr := New(Identity{}, nil)
	tr.state = stateSending
	body := make([]byte, 32+1200)
	tr.sendBuf = body
	tr.sendOff = 0

	frame, ok := tr.NextChunk()
	if !ok || Command(frame[0]) != CmdStart {
		t.Fatalf("first chunk should be START, got %+v ok=%v", frame[:1], ok)
	}
	tr.AckChunk(len(frame) - 3)

	frame, ok = tr.NextChunk()
	if !ok || Command(frame[0]) != CmdContinue {
		t.Fatalf("second chunk should be CONTINUE, got %+v ok=%v", frame[:1], ok)
	}
	tr.AckChunk(len(frame) - 3)

	frame, ok = tr.NextChunk()
	if !ok {
		t.Fatalf("expected a third chunk")
	}
	tr.AckChunk(len(frame) - 3)

	if tr.State() != Ready {
		t.Fatalf("state after full reply sent = %v, want Ready", tr.State())
	}
}
