// Package server exposes the display core over a unix domain socket: input
// sources stream mouse/keyboard frames in, control tooling applies and
// queries layouts. Every frame is funneled onto one dispatch goroutine, the
// single writer to the registry and input state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/lumenwm/lumen/display"
	"github.com/lumenwm/lumen/gfx"
	"github.com/lumenwm/lumen/protocol"
)

// Server listens on a unix socket and routes frames to the display core.
type Server struct {
	// OnMouseEvent receives every resolved mouse event, for the external
	// focus/dispatch layer. Called from the dispatch goroutine.
	OnMouseEvent func(display.MouseEvent)
	// OnKeyEvent receives every ingested key event.
	OnKeyEvent func(display.KeyEvent)

	addr     string
	registry *display.Registry
	input    *display.Input
	observer ApplyObserver
	listener net.Listener
	frames   chan frame
	quit     chan struct{}
	wg       sync.WaitGroup

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

type frame struct {
	hdr     protocol.Header
	payload []byte
	conn    net.Conn
}

// NewServer wires a listener address to the display core. A nil observer
// logs layout applications through the default logger.
func NewServer(addr string, registry *display.Registry, input *display.Input, observer ApplyObserver) *Server {
	if observer == nil {
		observer = NewApplyLogger(nil)
	}
	return &Server{
		addr:     addr,
		registry: registry,
		input:    input,
		observer: observer,
		frames:   make(chan frame, 64),
		quit:     make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}
}

func (s *Server) Start() error {
	if err := os.RemoveAll(s.addr); err != nil {
		return err
	}
	l, err := net.Listen("unix", s.addr)
	if err != nil {
		return err
	}
	s.listener = l
	s.wg.Add(2)
	go s.acceptLoop()
	go s.dispatchLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			continue
		}

		s.connMu.Lock()
		s.conns[conn] = struct{}{}
		s.connMu.Unlock()

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer func() {
				s.connMu.Lock()
				delete(s.conns, c)
				s.connMu.Unlock()
				c.Close()
			}()
			s.readLoop(c)
		}(conn)
	}
}

func (s *Server) readLoop(conn net.Conn) {
	for {
		hdr, payload, err := protocol.ReadMessage(conn)
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			if !errors.Is(err, io.EOF) {
				log.Printf("server: connection dropped: %v", err)
			}
			return
		}
		select {
		case s.frames <- frame{hdr: hdr, payload: payload, conn: conn}:
		case <-s.quit:
			return
		}
	}
}

// dispatchLoop is the single writer to the registry and input state. Frames
// are processed to completion in arrival order.
func (s *Server) dispatchLoop() {
	defer s.wg.Done()
	for {
		select {
		case f := <-s.frames:
			s.handleFrame(f)
		case <-s.quit:
			return
		}
	}
}

func (s *Server) handleFrame(f frame) {
	switch f.hdr.Type {
	case protocol.MsgMouseReport:
		report, err := protocol.DecodeMouseReport(f.payload)
		if err != nil {
			s.replyError(f, 1, err.Error())
			return
		}
		ev := s.input.OnReceiveMouseData(display.MousePacket{
			Relative: report.Relative(),
			DX:       int(report.DX),
			DY:       int(report.DY),
			X:        int(report.X),
			Y:        int(report.Y),
			Buttons:  report.Buttons,
			Wheel:    int(report.Wheel),
			WheelH:   int(report.WheelH),
		})
		if s.OnMouseEvent != nil {
			s.OnMouseEvent(ev)
		}

	case protocol.MsgKeyReport:
		report, err := protocol.DecodeKeyReport(f.payload)
		if err != nil {
			s.replyError(f, 1, err.Error())
			return
		}
		ev := s.input.OnReceiveKeyboardData(display.KeyEvent{
			Code:      report.Code,
			Modifiers: report.Modifiers,
			Pressed:   report.Pressed,
		})
		if s.OnKeyEvent != nil {
			s.OnKeyEvent(ev)
		}

	case protocol.MsgApplyLayout:
		s.handleApplyLayout(f)

	case protocol.MsgQueryLayout:
		doc, err := json.Marshal(s.registry.Layout())
		if err != nil {
			s.replyError(f, 2, err.Error())
			return
		}
		s.reply(f, protocol.MsgLayoutData, protocol.LayoutDocument{JSON: doc}.Encode())

	case protocol.MsgPing:
		s.reply(f, protocol.MsgPong, f.payload)

	default:
		s.replyError(f, 3, "unexpected message type")
	}
}

func (s *Server) handleApplyLayout(f frame) {
	var layout display.ScreenLayout
	if err := json.Unmarshal(f.payload, &layout); err != nil {
		s.replyLayoutResult(f, errors.New("server: malformed layout document: "+err.Error()))
		return
	}

	start := time.Now()
	err := s.registry.ApplyLayout(layout)
	s.observer.ObserveApply(s.registry.Count(), time.Since(start), err)
	s.replyLayoutResult(f, err)
}

func (s *Server) replyLayoutResult(f frame, applyErr error) {
	result := protocol.LayoutResult{OK: applyErr == nil}
	if applyErr != nil {
		result.Message = applyErr.Error()
	}
	payload, err := result.Encode()
	if err != nil {
		log.Printf("server: encode layout result: %v", err)
		return
	}
	s.reply(f, protocol.MsgLayoutResult, payload)
}

func (s *Server) replyError(f frame, code uint16, msg string) {
	payload, err := protocol.ErrorFrame{Code: code, Message: msg}.Encode()
	if err != nil {
		return
	}
	s.reply(f, protocol.MsgError, payload)
}

func (s *Server) reply(f frame, msgType protocol.MessageType, payload []byte) {
	hdr := protocol.Header{
		Version:  protocol.Version,
		Type:     msgType,
		Flags:    protocol.FlagChecksum,
		Sequence: f.hdr.Sequence,
	}
	if err := protocol.WriteMessage(f.conn, hdr, payload); err != nil {
		log.Printf("server: reply failed: %v", err)
	}
}

// CursorRect returns the 1x1 rectangle under the cursor; handed to the
// compositor for cursor redraw scheduling.
func (s *Server) CursorRect() gfx.Rect {
	loc := s.input.CursorLocation()
	return gfx.NewRect(loc.X, loc.Y, 1, 1)
}

func (s *Server) Stop(ctx context.Context) error {
	close(s.quit)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.connMu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.connMu.Unlock()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
