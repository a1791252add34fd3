//go:build !cgo

package backend

// Without cgo there is no miniaudio; the 3D engine reports itself unavailable.
func defaultDeviceOpener() DeviceOpener {
	return &StaticOpener{Err: ErrNoDevice}
}
