package transport

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
)

// DefaultRxBufferSize is the receive buffer of the board's UART.
const DefaultRxBufferSize = 64

// Conn implements Port over a byte stream opened on Configure.
type Conn struct {
	Opener  Opener
	Handler LineHandler

	rw       io.ReadWriteCloser
	conf     Config
	closed   bool
	lock     sync.Mutex
	ready    chan struct{}
	readyOne sync.Once

	parser     LineParser
	parserLock sync.Mutex

	// bytes received after the last WriteRaw, bounded by RxBufferSize.
	reply     []byte
	replyOn   bool
	replyCh   chan struct{}
	replyLock sync.Mutex
}

// NewConn creates a Conn using Open.
func NewConn(handler LineHandler) *Conn {
	return &Conn{Opener: Open, Handler: handler}
}

func (c *Conn) readyCh() chan struct{} {
	c.readyOne.Do(func() { c.ready = make(chan struct{}) })
	return c.ready
}

// Configure implements Port.
func (c *Conn) Configure(conf Config) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.rw != nil {
		return ErrAlreadyConfigured
	}
	opener := c.Opener
	if opener == nil {
		opener = Open
	}
	if conf.RxBufferSize <= 0 {
		conf.RxBufferSize = DefaultRxBufferSize
	}
	rw, err := opener(conf)
	if err != nil {
		return err
	}
	glog.Infof("link %s configured (tx=%s rx=%s baud=%d)", conf.Device, conf.TxPin, conf.RxPin, conf.BaudRate)
	c.rw, c.conf = rw, conf
	c.parserLock.Lock()
	c.parser.MaxLen = conf.RxBufferSize
	c.parser.Reset()
	c.parserLock.Unlock()
	close(c.readyCh())
	return nil
}

// WriteLine implements Port.
func (c *Conn) WriteLine(s string) error {
	glog.V(2).Infof("TX %q", s)
	return c.write([]byte(s + "\n"))
}

// WriteRaw implements Port.
// It also starts capturing the reply for ReadString.
func (c *Conn) WriteRaw(p []byte) error {
	glog.V(2).Infof("TX raw %q", p)
	c.replyLock.Lock()
	c.reply, c.replyOn = c.reply[:0], true
	c.replyLock.Unlock()
	return c.write(p)
}

func (c *Conn) write(p []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.rw == nil {
		return ErrNotConfigured
	}
	_, err := c.rw.Write(p)
	return err
}

// ReadString implements Port.
func (c *Conn) ReadString(timeout time.Duration) (string, error) {
	c.lock.Lock()
	closed, configured := c.closed, c.rw != nil
	c.lock.Unlock()
	if closed {
		return "", ErrClosed
	}
	if !configured {
		return "", ErrNotConfigured
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	c.replyLock.Lock()
	if !c.replyOn {
		c.reply, c.replyOn = c.reply[:0], true
	}
	ch := c.replyChan()
	if len(c.reply) > 0 {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	c.replyLock.Unlock()
	for {
		select {
		case <-ch:
			if reply, ok := c.takeReply(false); ok {
				return reply, nil
			}
		case <-timer.C:
			if reply, _ := c.takeReply(true); reply != "" {
				return reply, nil
			}
			return "", ErrReadTimeout
		}
	}
}

// takeReply stops capturing and returns the reply if a line terminator
// has been received, or force is set.
func (c *Conn) takeReply(force bool) (string, bool) {
	c.replyLock.Lock()
	defer c.replyLock.Unlock()
	if !force && bytes.IndexByte(c.reply, '\n') < 0 {
		return "", false
	}
	reply := string(c.reply)
	c.reply, c.replyOn = c.reply[:0], false
	return reply, true
}

func (c *Conn) replyChan() chan struct{} {
	if c.replyCh == nil {
		c.replyCh = make(chan struct{}, 1)
	}
	return c.replyCh
}

func (c *Conn) capture(p []byte, limit int) {
	c.replyLock.Lock()
	defer c.replyLock.Unlock()
	if !c.replyOn {
		return
	}
	if room := limit - len(c.reply); room < len(p) {
		p = p[:room]
	}
	c.reply = append(c.reply, p...)
	select {
	case c.replyChan() <- struct{}{}:
	default:
	}
}

// Close closes the underlying stream.
func (c *Conn) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.rw != nil {
		return c.rw.Close()
	}
	return nil
}

// Run implements Runnable. It waits until the link is configured,
// then reads and dispatches lines until ctx is done or the stream fails.
func (c *Conn) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.readyCh():
	}
	c.lock.Lock()
	rw, size := c.rw, c.conf.RxBufferSize
	c.lock.Unlock()
	return fx.RunWithContextCancel(ctx, func() { c.Close() }, func() error {
		return c.readLoop(ctx, rw, size)
	})
}

func (c *Conn) readLoop(ctx context.Context, r io.Reader, size int) error {
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c.capture(buf[:n], size)
		}
		for _, b := range buf[:n] {
			c.parserLock.Lock()
			pr := c.parser.Parse(b)
			c.parserLock.Unlock()
			if pr.Overflow {
				glog.Warningf("RX line exceeds %d bytes, discarded", size)
			}
			if pr.Complete && pr.Line != "" {
				glog.V(2).Infof("RX %q", pr.Line)
				if h := c.Handler; h != nil {
					h.HandleLine(ctx, pr.Line)
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
