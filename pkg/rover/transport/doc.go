// Package transport provides the line oriented link to the rover board.
package transport

// The board speaks newline terminated ASCII. Conn owns the byte stream:
// outbound commands are written as whole lines (or raw bytes for the
// Wi-Fi AT subprotocol), inbound bytes are framed by LineParser and each
// completed line is handed to a LineHandler from the goroutine running
// Conn.Run.
//
// The stream is either a UART (go.bug.st/serial) or a websocket exposed
// by a Wi-Fi serial bridge.
