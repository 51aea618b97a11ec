// Command pixied runs the Firefly Pixie signer core as a standalone
// process: a render loop and a transport accept loop listening on a TCP
// loopback stand-in for the BLE link, started and jointly cancelled the
// way the teacher's runtime_ipc.go starts an accept loop and waits on a
// done channel — generalized here to two cooperating loops via
// golang.org/x/sync/errgroup. No panel is pushed, so no panel task runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"net"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/firefly/pixie-firmware-sub000/internal/attest"
	"github.com/firefly/pixie-firmware-sub000/internal/diag"
	"github.com/firefly/pixie-firmware-sub000/internal/panel"
	"github.com/firefly/pixie-firmware-sub000/internal/scene"
	"github.com/firefly/pixie-firmware-sub000/internal/transport"
)

const sceneCapacity = 256
const frameHz = 60

func main() {
	addr := flag.String("listen", "127.0.0.1:4660", "TCP loopback address standing in for the BLE transport characteristic")
	model := flag.Uint("model", 0x0103, "device model number reported over QUERY")
	serial := flag.Uint("serial", 1, "device serial number reported over QUERY")
	headless := flag.Bool("headless", true, "run without an attached display driver (fragments are discarded)")
	flag.Parse()

	log := diag.NewMonitor(0)

	id, status := attest.Load(attest.MemStore{
		Words: attest.EfuseWords{Version: 1, Model: uint32(*model), Serial: uint32(*serial)},
		Key:   big.NewInt(1), // placeholder signing key for the simulated-hardware entrypoint
	})
	if status != attest.StatusOK {
		log.Logf(0, "attestation identity not ready: status=%d", status)
	} else {
		log.Logf(0, "device identity: %s", id.ModelName())
	}

	arena := scene.NewArena(sceneCapacity)
	mgr := panel.NewManager(arena)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer ln.Close()
	log.Logf(0, "transport listening on %s (headless=%v)", ln.Addr(), *headless)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return renderLoop(ctx, arena) })
	g.Go(func() error { return acceptLoop(ctx, ln, uint32(*model), uint32(*serial), mgr, log) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "pixied: %v\n", err)
		os.Exit(1)
	}
}

// renderLoop drives the scene arena at a fixed cadence, the Go
// analogue of the render/input task's 60 Hz inter-frame delay
// (spec.md §5).
func renderLoop(ctx context.Context, arena *scene.Arena) error {
	ticker := time.NewTicker(time.Second / frameHz)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			arena.Sequence()
		}
	}
}

// acceptLoop accepts transport connections in a loop, giving each its
// own Transport and Pump; Pump.Start does not block, so connections are
// served concurrently. This mirrors IPCServer.acceptLoop's
// Accept-then-spawn-handler shape from runtime_ipc.go.
func acceptLoop(ctx context.Context, ln net.Listener, model, serial uint32, mgr *panel.Manager, log *diag.Monitor) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		link := transport.NewTCPLink(conn)
		tr := transport.New(transport.Identity{Model: model, Serial: serial}, log)
		pump := transport.NewPump(tr, link, func(msg transport.Message) []byte {
			return dispatch(mgr, log, msg)
		}, log)
		pump.Start()
	}
}

// dispatch logs a decoded message and returns an empty reply body; it
// does not emit the message to any panel filter, so the pump answers
// every accepted message with a reply holding only the integrity digest
// of that empty body.
func dispatch(mgr *panel.Manager, log *diag.Monitor, msg transport.Message) []byte {
	log.Logf(0, "message id=%d method=%q", msg.ID, msg.Method)
	mgr.Active() // result unused; no panel is pushed in this entrypoint
	return nil
}
