package backend

import (
	"strings"
	"sync"
)

// Device is an open audio output context held by the 3D engine while ready.
type Device interface {
	// Backend names the host audio API, e.g. "alsa" or "wasapi".
	Backend() string
	// Name is the selected playback device.
	Name() string
	Close() error
}

// DeviceOpener acquires playback devices for the 3D engine.
type DeviceOpener interface {
	// Probe checks that a context can be opened without keeping it.
	Probe() error
	// Open acquires the named playback device, or the default when name is empty.
	Open(name string) (Device, error)
}

// isDefaultName reports whether name asks for the system default device.
func isDefaultName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "sysdefault":
		return true
	}
	return false
}

// StaticDevice is a Device with fixed identity, used by StaticOpener.
type StaticDevice struct {
	BackendName string
	DeviceName  string

	mu     sync.Mutex
	closed bool
}

// Backend implements Device.
func (d *StaticDevice) Backend() string { return d.BackendName }

// Name implements Device.
func (d *StaticDevice) Name() string { return d.DeviceName }

// Close implements Device.
func (d *StaticDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *StaticDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// StaticOpener opens in-memory devices. Err, when set, fails both Probe and
// Open. It lets the 3D engine run on hosts without audio hardware.
type StaticOpener struct {
	BackendName string
	Devices     []string
	Err         error

	mu     sync.Mutex
	opened []*StaticDevice
}

// Probe implements DeviceOpener.
func (o *StaticOpener) Probe() error {
	if o.Err != nil {
		return o.Err
	}
	if len(o.Devices) == 0 {
		return ErrNoDevice
	}
	return nil
}

// Open implements DeviceOpener.
func (o *StaticOpener) Open(name string) (Device, error) {
	if err := o.Probe(); err != nil {
		return nil, err
	}
	selected := o.Devices[0]
	if !isDefaultName(name) {
		selected = ""
		for _, d := range o.Devices {
			if strings.EqualFold(d, name) {
				selected = d
				break
			}
		}
		if selected == "" {
			return nil, ErrNoDevice
		}
	}

	dev := &StaticDevice{BackendName: o.BackendName, DeviceName: selected}
	o.mu.Lock()
	o.opened = append(o.opened, dev)
	o.mu.Unlock()
	return dev, nil
}

// Opened returns every device handed out so far.
func (o *StaticOpener) Opened() []*StaticDevice {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*StaticDevice, len(o.opened))
	copy(out, o.opened)
	return out
}
