package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/rover.go/pkg/bridge/mqtt"
	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/rover"
)

func init() {
	rover.SetupFlags()
	mqtt.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := rover.NewConfig()
	driver := conf.MustNewDriver()
	if err := driver.EnsureInitialized(); err != nil {
		glog.Exitf("open %s failed: %v", conf.Device, err)
	}
	glog.Infof("rover ready on %s (%s)", conf.Device, driver.Variant.Name)

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("driver", fx.RunFunc(func(ctx context.Context) error {
		// the link closed by the board stops the daemon as well.
		defer runner.Stop()
		return driver.Run(ctx)
	})))
	if poller := conf.NewPoller(driver); poller != nil {
		runner.Go(poller)
	}
	if bconf := mqtt.NewConfig(); bconf.BrokerURL != "" {
		runner.Go(bconf.MustNewBridge(driver))
	}

	var errs fx.AggregatedError
	errs.Add(runner.Wait(), driver.Close())
	if err := errs.Aggregate(); err != nil {
		glog.Exit(err)
	}
}
