package transport

import "github.com/firefly/pixie-firmware-sub000/internal/diag"

// Dispatcher hands a decoded, accepted message to the panel/message
// layer and returns the reply body to send back (already built with
// codec.Builder), mirroring spec.md §4.3's accept/send_reply contract.
type Dispatcher func(msg Message) (replyBody []byte)

// Pump drives a Transport's receive/send cycle over a Link in its own
// goroutine, the same Start/Stop-with-done-channel shape as the
// teacher's IPCServer.Start/Stop (runtime_ipc.go).
type Pump struct {
	t    *Transport
	link Link
	disp Dispatcher
	log  *diag.Monitor

	done chan struct{}
}

// NewPump wires a Transport to a Link and a Dispatcher.
func NewPump(t *Transport, link Link, disp Dispatcher, log *diag.Monitor) *Pump {
	if log == nil {
		log = diag.NewMonitor(0)
	}
	return &Pump{t: t, link: link, disp: disp, log: log, done: make(chan struct{})}
}

// Start begins the pump's receive loop in a goroutine.
func (p *Pump) Start() {
	go p.loop()
}

// Stop closes the underlying link and waits for the loop to exit.
func (p *Pump) Stop() {
	p.link.Close()
	<-p.done
}

func (p *Pump) loop() {
	defer close(p.done)
	for {
		frame, err := p.link.ReadFrame()
		if err != nil {
			return
		}
		p.handleFrame(frame)
	}
}

func (p *Pump) handleFrame(frame []byte) {
	if len(frame) == 0 {
		return
	}
	cmd := Command(frame[0])
	payload := frame[1:]

	switch cmd {
	case CmdQuery:
		p.reply(p.t.HandleQuery())
		return
	case CmdReset:
		p.t.HandleReset()
		p.reply([]byte{byte(StatusOK), byte(CmdReset)})
		return
	case CmdStart:
		if len(payload) < 2 {
			p.reply([]byte{byte(StatusBufferOverrun), byte(CmdStart)})
			return
		}
		totalLen := int(payload[0])<<8 | int(payload[1])
		status, msg := p.t.HandleStart(totalLen, payload[2:])
		p.replyOrDispatch(CmdStart, status, msg)
		return
	case CmdContinue:
		if len(payload) < 2 {
			p.reply([]byte{byte(StatusBufferOverrun), byte(CmdContinue)})
			return
		}
		offset := int(payload[0])<<8 | int(payload[1])
		status, msg := p.t.HandleContinue(offset, payload[2:])
		p.replyOrDispatch(CmdContinue, status, msg)
		return
	default:
		p.reply([]byte{byte(StatusBadCommand), frame[0]})
	}
}

func (p *Pump) replyOrDispatch(cmd Command, status Status, msg *Message) {
	if msg == nil {
		if status != StatusSuppress {
			p.reply([]byte{byte(status), byte(cmd)})
		}
		return
	}

	if !p.t.Accept() {
		p.log.Count("message-not-accepted")
		return
	}
	body := p.disp(*msg)
	p.t.BeginReply(body)
	p.pumpSend()
}

// pumpSend drains every chunk of the current reply in one burst,
// acknowledging each as if the indicated peer confirmed immediately;
// a real BLE link instead drives AckChunk from its own confirmation
// callback.
func (p *Pump) pumpSend() {
	p.reply([]byte{byte(StatusSuppress), byte(CmdReset)})
	for {
		frame, ok := p.t.NextChunk()
		if !ok {
			return
		}
		sent := len(frame) - 3
		p.link.WriteFrame(frame)
		p.t.AckChunk(sent)
	}
}

func (p *Pump) reply(frame []byte) {
	p.link.WriteFrame(frame)
}
