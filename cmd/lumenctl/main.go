// Copyright © 2025 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/lumenctl/main.go
// Summary: Control client: applies and inspects screen layouts on a running
// display service.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/lumenwm/lumen/config"
	"github.com/lumenwm/lumen/display"
	"github.com/lumenwm/lumen/protocol"
)

func main() {
	socketPath := flag.String("socket", "/tmp/lumend.sock", "Unix socket path")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	conn, err := net.Dial("unix", *socketPath)
	if err != nil {
		fail("connect: %v", err)
	}
	defer conn.Close()

	switch args[0] {
	case "apply":
		if len(args) != 2 {
			usage()
		}
		apply(conn, args[1])
	case "show":
		show(conn)
	default:
		usage()
	}
}

func apply(conn net.Conn, path string) {
	layout, err := config.LoadLayoutFile(path)
	if err != nil {
		fail("%v", err)
	}
	doc, err := json.Marshal(layout)
	if err != nil {
		fail("encode layout: %v", err)
	}
	send(conn, protocol.MsgApplyLayout, doc)

	result, err := protocol.DecodeLayoutResult(recv(conn, protocol.MsgLayoutResult))
	if err != nil {
		fail("decode reply: %v", err)
	}
	if !result.OK {
		fail("layout rejected: %s", result.Message)
	}
	fmt.Printf("applied %d screen(s)\n", len(layout.Screens))
}

func show(conn net.Conn) {
	send(conn, protocol.MsgQueryLayout, nil)
	payload := recv(conn, protocol.MsgLayoutData)

	var layout display.ScreenLayout
	if err := json.Unmarshal(payload, &layout); err != nil {
		fail("decode layout: %v", err)
	}
	for i, s := range layout.Screens {
		fmt.Printf("screen %d: %s\n", i, s)
	}
}

func send(conn net.Conn, msgType protocol.MessageType, payload []byte) {
	hdr := protocol.Header{Version: protocol.Version, Type: msgType, Flags: protocol.FlagChecksum}
	if err := protocol.WriteMessage(conn, hdr, payload); err != nil {
		fail("send: %v", err)
	}
}

func recv(conn net.Conn, want protocol.MessageType) []byte {
	hdr, payload, err := protocol.ReadMessage(conn)
	if err != nil {
		fail("receive: %v", err)
	}
	if hdr.Type == protocol.MsgError {
		if frame, err := protocol.DecodeErrorFrame(payload); err == nil {
			fail("server error: %s", frame.Message)
		}
	}
	if hdr.Type != want {
		fail("unexpected reply type %d", hdr.Type)
	}
	return payload
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: lumenctl [-socket path] apply <layout-file> | show")
	os.Exit(2)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "lumenctl: "+format+"\n", args...)
	os.Exit(1)
}
