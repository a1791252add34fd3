//go:build cgo

package backend

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"
)

// malgoOpener opens playback contexts through miniaudio.
type malgoOpener struct{}

func defaultDeviceOpener() DeviceOpener {
	return malgoOpener{}
}

// platformBackend picks the native miniaudio backend for this OS.
func platformBackend() (malgo.Backend, string, error) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, "alsa", nil
	case "windows":
		return malgo.BackendWasapi, "wasapi", nil
	case "darwin":
		return malgo.BackendCoreaudio, "coreaudio", nil
	}
	return malgo.BackendNull, "", fmt.Errorf("%w: unsupported platform %s", ErrNoDevice, runtime.GOOS)
}

func (malgoOpener) init() (*malgo.AllocatedContext, string, []malgo.DeviceInfo, error) {
	backend, name, err := platformBackend()
	if err != nil {
		return nil, "", nil, err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%w: init context: %v", ErrNoDevice, err)
	}

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, "", nil, fmt.Errorf("%w: enumerate devices: %v", ErrNoDevice, err)
	}

	// Skip the discard/null device
	playable := infos[:0]
	for i := range infos {
		if strings.Contains(infos[i].Name(), "Discard all samples") {
			continue
		}
		playable = append(playable, infos[i])
	}
	if len(playable) == 0 {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, "", nil, ErrNoDevice
	}
	return ctx, name, playable, nil
}

// Probe implements DeviceOpener.
func (o malgoOpener) Probe() error {
	ctx, _, _, err := o.init()
	if err != nil {
		return err
	}
	_ = ctx.Uninit()
	ctx.Free()
	return nil
}

// Open implements DeviceOpener.
func (o malgoOpener) Open(name string) (Device, error) {
	ctx, backendName, infos, err := o.init()
	if err != nil {
		return nil, err
	}

	selected := selectPlayback(infos, name)
	if selected == nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: %q", ErrNoDevice, name)
	}
	return &malgoDevice{ctx: ctx, backend: backendName, name: selected.Name()}, nil
}

// selectPlayback finds the default device or one matching name.
func selectPlayback(infos []malgo.DeviceInfo, name string) *malgo.DeviceInfo {
	if isDefaultName(name) {
		for i := range infos {
			if infos[i].IsDefault == 1 {
				return &infos[i]
			}
		}
		return &infos[0]
	}
	for i := range infos {
		if strings.EqualFold(infos[i].Name(), name) {
			return &infos[i]
		}
	}
	for i := range infos {
		if strings.Contains(strings.ToLower(infos[i].Name()), strings.ToLower(name)) {
			return &infos[i]
		}
	}
	return nil
}

type malgoDevice struct {
	ctx     *malgo.AllocatedContext
	backend string
	name    string
}

func (d *malgoDevice) Backend() string { return d.backend }
func (d *malgoDevice) Name() string    { return d.name }

func (d *malgoDevice) Close() error {
	if d.ctx == nil {
		return nil
	}
	err := d.ctx.Uninit()
	d.ctx.Free()
	d.ctx = nil
	return err
}
