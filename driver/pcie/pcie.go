// Package pcie is the real-hardware half of the driver interface: probing
// and identifying an actual NVMe controller/namespace over the admin
// passthrough ioctl. It deliberately stops at identify — go-nvme has no
// queue-pair submission or ZNS zone-management surface, and a from-scratch
// NVMe command-ring ABI is outside what this library gives us to work
// with — so a namespace's whole geometry here (sector size and count as
// well as zone geometry) is supplied by the caller (typically loaded from a
// config.Profile), not derived from the controller.
package pcie

import (
	"bytes"
	"context"
	"path/filepath"

	gonvme "github.com/dswarbrick/go-nvme/nvme"
	"github.com/pkg/errors"

	"github.com/LinJ0/TraceIO/driver"
)

// Controller wraps a real /dev/nvmeN character device, identified once at
// Probe time.
type Controller struct {
	dev    string
	device *gonvme.NVMeDevice
	info   gonvme.NVMeController
	nsInfo driver.NamespaceInfo
}

// Prober implements driver.Prober against real hardware: NsInfo supplies
// the namespace geometry every discovered controller's sole namespace is
// reported with, since go-nvme cannot derive ZNS geometry.
type Prober struct {
	NsInfo driver.NamespaceInfo
}

func (p Prober) Probe(ctx context.Context) ([]driver.Controller, error) {
	return probe(ctx, p.NsInfo)
}

// probe globs /dev/nvme*, following the teacher's own ScanDevices pattern
// (smart.go), opening and identifying each controller found.
func probe(ctx context.Context, nsInfo driver.NamespaceInfo) ([]driver.Controller, error) {
	matches, err := filepath.Glob("/dev/nvme[0-9]*")
	if err != nil {
		return nil, errors.Wrap(err, "pcie: glob /dev/nvme*")
	}
	if len(matches) == 0 {
		return nil, errors.New("pcie: no NVMe controllers found")
	}

	var out []driver.Controller
	for _, dev := range matches {
		c, err := open(dev, nsInfo)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, errors.New("pcie: no NVMe controllers could be identified")
	}
	return out, nil
}

func open(dev string, nsInfo driver.NamespaceInfo) (*Controller, error) {
	d := gonvme.NewNVMeDevice(dev)
	if err := d.Open(); err != nil {
		return nil, errors.Wrapf(err, "pcie: open %s", dev)
	}

	var diag bytes.Buffer
	info, err := d.IdentifyController(&diag)
	if err != nil {
		d.Close()
		return nil, errors.Wrapf(err, "pcie: identify controller %s", dev)
	}

	return &Controller{dev: dev, device: d, info: info, nsInfo: nsInfo}, nil
}

// Identity returns the last-identified controller's vendor/model/serial
// fields, for diagnostics.
func (c *Controller) Identity() gonvme.NVMeController { return c.info }

func (c *Controller) Namespaces(ctx context.Context) ([]driver.Namespace, error) {
	var diag bytes.Buffer
	if err := c.device.IdentifyNamespace(&diag, 1); err != nil {
		return nil, errors.Wrapf(err, "pcie: identify namespace 1 on %s", c.dev)
	}
	return []driver.Namespace{&namespace{info: c.nsInfo}}, nil
}

func (c *Controller) Close() error {
	return c.device.Close()
}

// namespace reports geometry supplied at Probe time; it has no live queue
// pair backing, since go-nvme offers no submission-queue primitive to build
// one on top of.
type namespace struct {
	info driver.NamespaceInfo
}

func (n *namespace) Info() driver.NamespaceInfo { return n.info }

func (n *namespace) Alloc(ctx context.Context) (driver.QueuePair, error) {
	return nil, errors.New("pcie: queue-pair submission is not implemented; use driver/sim for replay")
}
