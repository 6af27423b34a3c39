package transport

import (
	"fmt"
	"io"
	"net/url"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// OpenWebsocket connects to a Wi-Fi serial bridge exposing the UART
// as a websocket. Bytes are exchanged as binary frames.
func OpenWebsocket(conf Config) (io.ReadWriteCloser, error) {
	u, err := url.Parse(conf.Device)
	if err != nil {
		return nil, fmt.Errorf("invalid device URL: %v", err)
	}
	origin := "http://" + u.Host + "/"
	if u.Scheme == "wss" {
		origin = "https://" + u.Host + "/"
	}
	conn, err := websocket.Dial(conf.Device, "", origin)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %v", conf.Device, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	glog.Infof("websocket %s connected", conf.Device)
	return conn, nil
}
