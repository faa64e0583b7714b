// Package inputdevice implements restricted open/close primitives and
// the device-discovery half of permission checking: enumerating input
// devices via udev, filtering for keyboard capability, assigning them to
// a seat, and observing hotplug events.
//
// Device discovery is grounded on github.com/jochenvg/go-udev, the same
// udev binding canonical-lxd depends on (there, for storage/network
// device discovery). The keyboard-capability filter itself follows
// other_examples/25785142_AshBuk-speak-to-ai__hotkeys-providers-evdev_provider.go.go's
// findKeyboardDevices: a device is a keyboard candidate if it advertises
// the platform's keyboard property.
package inputdevice

import (
	"context"
	"strings"

	"github.com/jochenvg/go-udev"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/domi413/typetrace-backend/internal/applog"
)

// udevKeyboardProperty is the udev hwdb property set on devices the
// kernel/udev classify as keyboards.
const udevKeyboardProperty = "ID_INPUT_KEYBOARD"

// udevSeatProperty identifies the logical seat a device is attached to;
// devices with no explicit tag belong to seat0.
const udevSeatProperty = "ID_SEAT"

// DeviceInfo describes one enumerated input device.
type DeviceInfo struct {
	Devnode    string
	Name       string
	IsKeyboard bool
}

// HotplugKind distinguishes the two observed-only events: DEVICE_ADDED
// and DEVICE_REMOVED are logged but otherwise inert.
type HotplugKind int

const (
	DeviceAdded HotplugKind = iota
	DeviceRemoved
)

// HotplugEvent is a single observed device add/remove notification.
type HotplugEvent struct {
	Kind HotplugKind
	Info DeviceInfo
}

// Enumerator owns the udev handle used for device discovery and hotplug
// monitoring, scoped to a single seat.
type Enumerator struct {
	udev *udev.Udev
	seat string
	log  *applog.Logger
}

// NewEnumerator constructs an Enumerator bound to seat (normally "seat0",
// config.DefaultSeat).
func NewEnumerator(seat string, log *applog.Logger) *Enumerator {
	return &Enumerator{udev: &udev.Udev{}, seat: seat, log: log}
}

// ListKeyboards enumerates devices in the "input" subsystem belonging to
// e's seat and reports which ones advertise the keyboard capability.
func (e *Enumerator) ListKeyboards() ([]DeviceInfo, error) {
	enum := e.udev.NewEnumerate()
	if err := enum.AddMatchSubsystem("input"); err != nil {
		return nil, errors.Wrap(err, "match input subsystem")
	}

	devices, err := enum.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate input devices")
	}

	var out []DeviceInfo
	for _, d := range devices {
		devnode := d.Devnode()
		if devnode == "" || !strings.Contains(devnode, "/event") {
			continue
		}

		if seat := d.PropertyValue(udevSeatProperty); seat != "" && seat != e.seat {
			continue
		}

		info := DeviceInfo{
			Devnode:    devnode,
			Name:       d.PropertyValue("NAME"),
			IsKeyboard: d.PropertyValue(udevKeyboardProperty) == "1",
		}
		out = append(out, info)
	}

	return out, nil
}

// HasAccessibleKeyboard implements permission.AccessibleDevicesChecker:
// at least one device must be observed, and at least one of those must
// be a keyboard.
func (e *Enumerator) HasAccessibleKeyboard() (bool, error) {
	devices, err := e.ListKeyboards()
	if err != nil {
		return false, err
	}
	if len(devices) == 0 {
		return false, nil
	}

	for _, d := range devices {
		if d.IsKeyboard {
			return true, nil
		}
	}
	return false, nil
}

// Monitor observes hotplug events on the "input" subsystem until ctx is
// cancelled. These are observed only for logging: a device that appears
// after startup is not opened, and enumeration is not repeated, so only
// the devices found when the event handler was built are read.
func (e *Enumerator) Monitor(ctx context.Context) (<-chan HotplugEvent, error) {
	mon := e.udev.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("input"); err != nil {
		return nil, errors.Wrap(err, "filter monitor to input subsystem")
	}

	deviceCh, err := mon.DeviceChan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "start udev monitor")
	}

	out := make(chan HotplugEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deviceCh:
				if !ok {
					return
				}
				ev := HotplugEvent{
					Info: DeviceInfo{
						Devnode:    d.Devnode(),
						Name:       d.PropertyValue("NAME"),
						IsKeyboard: d.PropertyValue(udevKeyboardProperty) == "1",
					},
				}
				switch d.Action() {
				case "remove":
					ev.Kind = DeviceRemoved
				default:
					ev.Kind = DeviceAdded
				}

				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// OpenRestricted opens path with flags, returning the descriptor on
// success or the negated errno on failure, matching the
// open_restricted(path, flags) contract expected by the multiplexer
// callback.
func OpenRestricted(path string, flags int) (int, error) {
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		if errno, ok := err.(unix.Errno); ok {
			return -int(errno), err
		}
		return -1, err
	}
	return fd, nil
}

// CloseRestricted closes fd, ignoring errors.
func CloseRestricted(fd int) {
	_ = unix.Close(fd)
}
