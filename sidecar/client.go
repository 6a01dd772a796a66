package sidecar

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/agentbackplane/abp/contract"
	"github.com/google/uuid"
)

// HandshakeTimeout bounds how long Spawn waits for the sidecar's initial
// hello frame.
const HandshakeTimeout = 5 * time.Second

// CancelGracePeriod bounds how long Run waits for a final or fatal frame
// after sending cancel before killing the process.
const CancelGracePeriod = 5 * time.Second

// EventChannelCapacity is the default bound on the per-run event channel;
// a full channel applies backpressure to the frame-reading loop.
const EventChannelCapacity = 256

// ProtocolError reports a sidecar protocol violation: a missing or
// malformed handshake, a contract version mismatch, or exiting before a
// final frame.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("sidecar: protocol violation: %s", e.Reason) }

// HostError wraps a failure originating in the host process rather than in
// the wire protocol itself: a spawn, pipe, or I/O error, or a fatal
// envelope's error message reported by either side.
type HostError struct {
	Message string
	Err     error
}

func (e *HostError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sidecar: host error: %v", e.Err)
	}
	return fmt.Sprintf("sidecar: fatal: %s", e.Message)
}

func (e *HostError) Unwrap() error { return e.Err }

// Client drives one spawned sidecar subprocess through the handshake and
// run protocol.
type Client struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	hello  Hello

	mu sync.Mutex
}

// Spawn starts command as a subprocess and performs the handshake,
// expecting a hello frame within HandshakeTimeout. On failure the process
// is killed before returning.
func Spawn(ctx context.Context, name string, args ...string) (*Client, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &HostError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &HostError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	if err := cmd.Start(); err != nil {
		return nil, &HostError{Err: fmt.Errorf("spawn: %w", err)}
	}

	c := &Client{cmd: cmd, stdin: stdin, stdout: bufio.NewScanner(stdout)}
	c.stdout.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	helloCh := make(chan Envelope, 1)
	errCh := make(chan error, 1)
	go func() {
		var env Envelope
		if !c.stdout.Scan() {
			errCh <- &ProtocolError{Reason: "bad hello: sidecar closed stdout before any frame"}
			return
		}
		if err := json.Unmarshal(c.stdout.Bytes(), &env); err != nil {
			errCh <- &ProtocolError{Reason: fmt.Sprintf("bad hello: %v", err)}
			return
		}
		helloCh <- env
	}()

	select {
	case env := <-helloCh:
		hello, ok := env.Kind.(Hello)
		if !ok {
			_ = c.kill()
			return nil, &ProtocolError{Reason: "bad hello: first frame was not hello"}
		}
		if hello.ContractVersion != contract.ContractVersion {
			_ = c.kill()
			return nil, &ProtocolError{Reason: fmt.Sprintf("contract version mismatch: got %q want %q", hello.ContractVersion, contract.ContractVersion)}
		}
		c.hello = hello
		return c, nil
	case err := <-errCh:
		_ = c.kill()
		return nil, err
	case <-time.After(HandshakeTimeout):
		_ = c.kill()
		return nil, &ProtocolError{Reason: "bad hello: handshake timed out"}
	}
}

// Hello returns the hello frame observed during the handshake.
func (c *Client) Hello() Hello { return c.hello }

func (c *Client) kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	return c.cmd.Process.Kill()
}

func (c *Client) writeEnvelope(kind EnvelopeKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(Envelope{Kind: kind})
	if err != nil {
		return fmt.Errorf("sidecar: marshal frame: %w", err)
	}
	data = append(data, '\n')
	_, err = c.stdin.Write(data)
	return err
}

// Run sends a run frame for runID/workOrder, then pumps frames from the
// sidecar until a final or fatal frame arrives, forwarding matching event
// frames onto events. Mismatched-ref_id event frames are dropped silently
// (a warning condition, not an error). Run honors ctx cancellation by
// sending a cancel frame and waiting up to CancelGracePeriod before killing
// the process.
func (c *Client) Run(ctx context.Context, runID string, workOrder contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error) {
	if err := c.writeEnvelope(Run{ID: runID, WorkOrder: workOrder}); err != nil {
		return contract.Receipt{}, &HostError{Err: fmt.Errorf("send run frame: %w", err)}
	}

	frames := make(chan Envelope)
	scanErrCh := make(chan error, 1)
	go func() {
		defer close(frames)
		for c.stdout.Scan() {
			var env Envelope
			if err := json.Unmarshal(c.stdout.Bytes(), &env); err != nil {
				scanErrCh <- fmt.Errorf("sidecar: decode frame: %w", err)
				return
			}
			frames <- env
		}
		if err := c.stdout.Err(); err != nil {
			scanErrCh <- &HostError{Err: fmt.Errorf("read frame: %w", err)}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return c.cancelAndWait(runID, "context canceled", frames)

		case err := <-scanErrCh:
			return contract.Receipt{}, err

		case env, open := <-frames:
			if !open {
				return contract.Receipt{}, &ProtocolError{Reason: "sidecar exited without final frame"}
			}
			switch k := env.Kind.(type) {
			case Event:
				if k.RefID != runID {
					continue
				}
				events <- k.Event
			case Final:
				if k.RefID == runID {
					return k.Receipt, nil
				}
			case Fatal:
				return contract.Receipt{}, &HostError{Message: k.Error}
			case Pong:
				// liveness only
			}
		}
	}
}

func (c *Client) cancelAndWait(runID, reason string, frames <-chan Envelope) (contract.Receipt, error) {
	_ = c.writeEnvelope(Cancel{RefID: runID, Reason: reason})
	deadline := time.After(CancelGracePeriod)
	for {
		select {
		case env, open := <-frames:
			if !open {
				_ = c.kill()
				return contract.Receipt{}, &ProtocolError{Reason: "sidecar exited without final frame"}
			}
			switch k := env.Kind.(type) {
			case Final:
				if k.RefID == runID {
					return k.Receipt, nil
				}
			case Fatal:
				_ = c.kill()
				return contract.Receipt{}, &HostError{Message: k.Error}
			}
		case <-deadline:
			_ = c.kill()
			return contract.Receipt{}, fmt.Errorf("sidecar: cancel grace period expired for run %q", runID)
		}
	}
}

// NewRunID mints a fresh UUID v4 run identifier.
func NewRunID() string { return uuid.NewString() }
