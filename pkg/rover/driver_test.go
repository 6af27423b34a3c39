package rover

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rover.go/pkg/rover/protocol"
	"github.com/robotalks/rover.go/pkg/rover/telemetry"
	"github.com/robotalks/rover.go/pkg/rover/transport"
)

type write struct {
	data string
	raw  bool
}

type fakePort struct {
	configured   []transport.Config
	configureErr error
	writeErr     error
	pending      string
	readTimeouts []time.Duration
	writes       []write
	lock         sync.Mutex
}

func (p *fakePort) Configure(conf transport.Config) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.configured = append(p.configured, conf)
	return p.configureErr
}

func (p *fakePort) WriteLine(s string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	p.writes = append(p.writes, write{data: s})
	return nil
}

func (p *fakePort) WriteRaw(b []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	p.writes = append(p.writes, write{data: string(b), raw: true})
	return nil
}

func (p *fakePort) ReadString(timeout time.Duration) (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.readTimeouts = append(p.readTimeouts, timeout)
	s := p.pending
	p.pending = ""
	if s == "" {
		return "", transport.ErrReadTimeout
	}
	return s, nil
}

func (p *fakePort) lines() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	var out []string
	for _, w := range p.writes {
		out = append(out, w.data)
	}
	return out
}

type driverTestEnv struct {
	port   *fakePort
	driver *Driver
	sleeps []time.Duration
}

func newDriverTestEnv(variant protocol.Variant) *driverTestEnv {
	env := &driverTestEnv{port: &fakePort{}}
	store := telemetry.NewStore()
	env.driver = &Driver{
		Port:       env.port,
		Link:       transport.Config{Device: "/dev/ttyTEST", BaudRate: variant.BaudRate},
		Variant:    variant,
		Store:      store,
		Dispatcher: telemetry.NewDispatcher(store),
		Sleep:      func(d time.Duration) { env.sleeps = append(env.sleeps, d) },
	}
	return env
}

func TestDriverCommands(t *testing.T) {
	testCases := []struct {
		name   string
		op     func(*Driver) error
		frame  string
		raw    bool
		settle time.Duration
	}{
		{"drive", func(d *Driver) error { return d.Drive(120, protocol.Positive, 80, protocol.Negative) }, "CM10120080", false, 0},
		{"stop", (*Driver).Stop, "CM11000000", false, 0},
		{"pause", (*Driver).PauseAI, "EXPS+++++0", false, 0},
		{"resume", (*Driver).ResumeAI, "EXPS+++++1", false, 0},
		{"reboot", (*Driver).RebootAIModule, "EXRS++++++", false, RebootSettleDelay},
		{"mode manual", func(d *Driver) error { return d.SwitchMode(protocol.Manual) }, "EXPS+++++0", false, ModeSettleDelay},
		{"mode face", func(d *Driver) error { return d.SwitchMode(protocol.FaceDetect) }, "EXMO+++++3", false, ModeSettleDelay},
		{"color", func(d *Driver) error { return d.ChangeColor(protocol.Blue) }, "EXCO+++++2", false, ColorSettleDelay},
		{"led on", func(d *Driver) error { return d.SetLED(true) }, "CHON", false, 0},
		{"led off", func(d *Driver) error { return d.SetLED(false) }, "CHOFF", false, 0},
		{"buzzer on", func(d *Driver) error { return d.SetBuzzer(true) }, "CBON", false, 0},
		{"buzzer off", func(d *Driver) error { return d.SetBuzzer(false) }, "CBOFF", false, 0},
		{"obstacle on", func(d *Driver) error { return d.SetObstacleAvoidance(true) }, "CTCKON=1", false, 0},
		{"obstacle off", func(d *Driver) error { return d.SetObstacleAvoidance(false) }, "CTCKON=0", false, 0},
		{"rgb", func(d *Driver) error { return d.SetRGB(protocol.RGB{R: 255}, protocol.RGB{G: 255}) }, "CR255000000000255000", false, 0},
		{"rgb packed", func(d *Driver) error { return d.SetRGBColor(0x0000ff, 0x102030) }, "CR000000255016032048", false, 0},
		{"query battery", (*Driver).QueryBattery, "CTINFO", false, 0},
		{"query voltage", (*Driver).QueryVoltage, "CVINFO", false, 0},
		{"query sonar", (*Driver).QuerySonar, "CUINFO", false, 0},
		{"query line", (*Driver).QueryLineSensors, "CLINFO", false, 0},
		{"wifi wait", func(d *Driver) error { return d.SetWifiWaitMode(true) }, "TCON", true, 0},
		{"wifi wait exit", func(d *Driver) error { return d.SetWifiWaitMode(false) }, "TCOFF", true, 0},
		{"wifi join", func(d *Driver) error { return d.ConnectWifi("home", "pw") }, `AT+CWJAP_DEF="home","pw"`, true, WifiJoinSettleDelay},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newDriverTestEnv(protocol.V1)
			require.NoError(t, tc.op(env.driver))
			require.Equal(t, []write{{data: tc.frame, raw: tc.raw}}, env.port.writes)
			if tc.settle > 0 {
				require.Equal(t, []time.Duration{tc.settle}, env.sleeps)
			} else {
				require.Empty(t, env.sleeps)
			}
			require.Len(t, env.port.configured, 1)
		})
	}
}

func TestDriverVariantObstacleAvoidance(t *testing.T) {
	env := newDriverTestEnv(protocol.V2)
	require.NoError(t, env.driver.SetObstacleAvoidance(true))
	require.NoError(t, env.driver.SetObstacleAvoidance(false))
	require.Equal(t, []string{"CTESTON", "CTESTOFF"}, env.port.lines())
}

func TestDriverInitializesOnce(t *testing.T) {
	env := newDriverTestEnv(protocol.V1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, env.driver.Stop())
		}()
	}
	wg.Wait()
	require.NoError(t, env.driver.EnsureInitialized())
	require.NoError(t, env.driver.QueryAll())
	require.Len(t, env.port.configured, 1)
	require.Equal(t, "/dev/ttyTEST", env.port.configured[0].Device)
	require.Len(t, env.port.lines(), 12)
}

func TestDriverInitFailure(t *testing.T) {
	env := newDriverTestEnv(protocol.V1)
	env.port.configureErr = errors.New("no device")
	require.EqualError(t, env.driver.Stop(), "no device")
	require.EqualError(t, env.driver.SetLED(true), "no device")
	require.EqualError(t, env.driver.ConnectWifi("a", "b"), "no device")
	require.Len(t, env.port.configured, 1)
	require.Empty(t, env.port.writes)
}

func TestDriverWriteFailure(t *testing.T) {
	env := newDriverTestEnv(protocol.V1)
	env.port.writeErr = errors.New("broken pipe")
	require.EqualError(t, env.driver.RebootAIModule(), "broken pipe")
	require.Empty(t, env.sleeps)
	err := env.driver.QueryAll()
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken pipe")
}

func TestDriverInvalidEnums(t *testing.T) {
	env := newDriverTestEnv(protocol.V1)
	require.True(t, errors.Is(env.driver.SwitchMode(protocol.CarMode(7)), protocol.ErrUnknownMode))
	require.True(t, errors.Is(env.driver.ChangeColor(protocol.ColorFilter(-1)), protocol.ErrUnknownColor))
	require.Empty(t, env.port.writes)
}

func TestDriverConnectWifiReadsReply(t *testing.T) {
	env := newDriverTestEnv(protocol.V1)
	env.port.pending = "WIFI CONNECTED\r\n"
	require.NoError(t, env.driver.ConnectWifi("net", "pass"))
	require.Empty(t, env.port.pending)
	require.Equal(t, []time.Duration{WifiJoinReplyTimeout}, env.port.readTimeouts)
	require.Equal(t, []time.Duration{WifiJoinSettleDelay}, env.sleeps)

	// a missing reply is not an error, the settle delay still applies.
	env = newDriverTestEnv(protocol.V1)
	require.NoError(t, env.driver.ConnectWifi("net", "pass"))
	require.Equal(t, []time.Duration{WifiJoinSettleDelay}, env.sleeps)
}

func TestDriverConnectWifiOverConn(t *testing.T) {
	in, inject := io.Pipe()
	stream := &pipeStream{PipeReader: in}
	conf := NewConfig()
	conf.Variant = "v1"
	d, err := conf.NewDriver()
	require.NoError(t, err)
	d.Port.(*transport.Conn).Opener = func(transport.Config) (io.ReadWriteCloser, error) {
		return stream, nil
	}
	d.Sleep = func(time.Duration) {}
	require.NoError(t, d.EnsureInitialized())
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	go d.Run(ctx)

	inject.Write([]byte("CV04"))
	done := make(chan error, 1)
	go func() { done <- d.ConnectWifi("net", "pass") }()
	require.Eventually(t, func() bool {
		return stream.output() == `AT+CWJAP_DEF="net","pass"`
	}, time.Second, 5*time.Millisecond)
	inject.Write([]byte("5\nWIFI CONNECTED\n"))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("join not returned")
	}
	require.Eventually(t, func() bool {
		return d.Voltage() == 45
	}, time.Second, 5*time.Millisecond)
}

type pipeStream struct {
	*io.PipeReader
	written []byte
	lock    sync.Mutex
}

func (s *pipeStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.written = append(s.written, p...)
	return len(p), nil
}

func (s *pipeStream) output() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return string(s.written)
}

func TestDriverTelemetryAccessors(t *testing.T) {
	env := newDriverTestEnv(protocol.V1)
	d := env.driver
	require.Equal(t, 0, d.Battery())
	for _, line := range []string{"CT88", "CV045", "CU230", "CL1203", "ZZhello", "CVxy"} {
		d.Dispatcher.HandleLine(context.TODO(), line)
	}
	require.Equal(t, 88, d.Battery())
	require.Equal(t, "88", d.BatteryText())
	require.Equal(t, 45, d.Voltage())
	require.Equal(t, 230, d.SonarDistance())
	require.Equal(t, 1, d.LineSensor1())
	require.Equal(t, 2, d.LineSensor2())
	require.Equal(t, 0, d.LineSensor3())
	require.Equal(t, 3, d.LineSensor4())
	require.True(t, d.Telemetry().Received(telemetry.Line4))
	require.Empty(t, env.port.configured)
}

type runnablePort struct {
	fakePort
	ran chan struct{}
}

func (p *runnablePort) Run(ctx context.Context) error {
	close(p.ran)
	<-ctx.Done()
	return ctx.Err()
}

func TestDriverRunDelegates(t *testing.T) {
	port := &runnablePort{ran: make(chan struct{})}
	d := &Driver{Port: port}
	ctx, cancel := context.WithCancel(context.TODO())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()
	<-port.ran
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.NoError(t, d.Close())
}

func TestNewDriverEndToEnd(t *testing.T) {
	conf := NewConfig()
	conf.Device = "/dev/ttyTEST"
	conf.Variant = "v2"
	d, err := conf.NewDriver()
	require.NoError(t, err)
	require.Equal(t, 9600, d.Link.BaudRate)
	require.Equal(t, TxPin, d.Link.TxPin)
	require.Equal(t, RxPin, d.Link.RxPin)
	_, ok := d.Port.(*transport.Conn)
	require.True(t, ok)
	require.Same(t, d.Store, d.Dispatcher.Store)

	conf.BaudRate = 57600
	require.Equal(t, 57600, conf.LinkConfig(protocol.V2).BaudRate)

	conf.Variant = "v0"
	_, err = conf.NewDriver()
	require.True(t, errors.Is(err, protocol.ErrUnknownVariant))
}

type countingQuerier struct {
	calls chan struct{}
}

func (q *countingQuerier) QueryAll() error {
	select {
	case q.calls <- struct{}{}:
	default:
	}
	return errors.New("ignored")
}

func TestPoller(t *testing.T) {
	q := &countingQuerier{calls: make(chan struct{}, 4)}
	p := &Poller{Driver: q, Interval: time.Millisecond}
	ctx, cancel := context.WithCancel(context.TODO())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	for i := 0; i < 3; i++ {
		select {
		case <-q.calls:
		case <-time.After(time.Second):
			t.Fatal("poll timeout")
		}
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)

	require.Nil(t, NewConfig().NewPoller(nil))
	conf := NewConfig()
	conf.PollInterval = time.Minute
	require.Equal(t, time.Minute, conf.NewPoller(nil).Interval)
}
