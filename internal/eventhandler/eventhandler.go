//go:build linux

// Package eventhandler owns the device file descriptors and the udev
// enumerator, multiplexes readability across them with a single
// unix.Poll suspension point, canonicalizes PRESSED EV_KEY events into
// keystroke.Event values, and feeds them into the coalescing buffer
// embedded in EventHandler's state.
//
// The poll-loop/drain-then-dispatch shape is grounded on
// other_examples/25785142_AshBuk-speak-to-ai__hotkeys-providers-evdev_provider.go.go's
// listenDevice/handleKeyEvent pair, collapsed from one goroutine per
// device into a single cooperative loop.
package eventhandler

import (
	"bytes"
	"context"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/domi413/typetrace-backend/internal/apperrors"
	"github.com/domi413/typetrace-backend/internal/applog"
	"github.com/domi413/typetrace-backend/internal/config"
	"github.com/domi413/typetrace-backend/internal/evdev"
	"github.com/domi413/typetrace-backend/internal/inputdevice"
	"github.com/domi413/typetrace-backend/internal/keystroke"
	"github.com/domi413/typetrace-backend/internal/permission"
)

// FlushFunc is the callback installed via SetFlushCallback.
type FlushFunc func([]keystroke.Event) error

// device is one opened, pollable input device.
type device struct {
	path string
	fd   int
	file *os.File
}

// EventHandler owns the multiplexer handle (the set of opened device
// file descriptors), the device-enumeration handle, the coalescing
// buffer, the last-flush timestamp, and the flush callback.
type EventHandler struct {
	cfg        config.Config
	log        *applog.Logger
	enumerator *inputdevice.Enumerator

	devices []*device
	buf     *buffer
	flushCb FlushFunc

	monitorCtx    context.Context
	monitorCancel context.CancelFunc
	hotplugCh     <-chan inputdevice.HotplugEvent

	now func() time.Time
}

// New performs construction in order: device-enumeration init and seat
// assignment -> permission check -> accessibility check -> multiplexer
// init (opening every keyboard device node) -> hotplug monitor ->
// initialize window_start. Any step failing
// propagates an error; no partially-initialized handler is observable
// (opened fds are closed before returning an error).
func New(cfg config.Config, log *applog.Logger) (*EventHandler, error) {
	enumerator := inputdevice.NewEnumerator(cfg.Seat, log)

	if err := permission.RequireInputGroup(log); err != nil {
		return nil, err
	}

	if err := permission.RequireAccessibleDevices(enumerator); err != nil {
		return nil, err
	}

	infos, err := enumerator.ListKeyboards()
	if err != nil {
		return nil, apperrors.New(apperrors.KindInputLayer, "list keyboards: %v", err)
	}

	h := &EventHandler{
		cfg:        cfg,
		log:        log,
		enumerator: enumerator,
		now:        time.Now,
	}

	for _, info := range infos {
		if !info.IsKeyboard {
			continue
		}
		if err := h.openDevice(info.Devnode); err != nil {
			h.closeDevices()
			return nil, apperrors.New(apperrors.KindInputLayer, "open device %q: %v", info.Devnode, err)
		}
	}

	if len(h.devices) == 0 {
		h.closeDevices()
		return nil, apperrors.New(apperrors.KindNoDevices, "no keyboard devices could be opened on seat %q", cfg.Seat)
	}

	ctx, cancel := context.WithCancel(context.Background())
	hotplugCh, err := enumerator.Monitor(ctx)
	if err != nil {
		cancel()
		h.closeDevices()
		return nil, apperrors.New(apperrors.KindInputLayer, "start hotplug monitor: %v", err)
	}
	h.monitorCtx = ctx
	h.monitorCancel = cancel
	h.hotplugCh = hotplugCh

	h.buf = newBuffer(cfg.BufferSize, cfg.BufferTimeout, h.now())

	return h, nil
}

func (h *EventHandler) openDevice(path string) error {
	fd, err := inputdevice.OpenRestricted(path, unix.O_RDONLY|unix.O_NONBLOCK)
	if err != nil {
		return err
	}
	h.devices = append(h.devices, &device{
		path: path,
		fd:   fd,
		file: os.NewFile(uintptr(fd), path),
	})
	return nil
}

func (h *EventHandler) closeDevices() {
	for _, d := range h.devices {
		inputdevice.CloseRestricted(d.fd)
	}
	h.devices = nil
}

// SetFlushCallback installs f, replacing any previous callback.
func (h *EventHandler) SetFlushCallback(f FlushFunc) {
	h.flushCb = f
}

// Tick runs one iteration of the input loop:
//  1. wait for readability for up to cfg.PollTimeout
//  2. on readiness, drain each ready device's events, pushing PRESSED
//     EV_KEY events into the buffer (the size trigger is checked inside
//     the drain itself, so a burst flushes mid-drain rather than only
//     once the whole tick finishes)
//  3. flush if the time trigger still holds afterward
//
// Tick never blocks longer than cfg.PollTimeout; the caller decides when
// to stop calling it.
func (h *EventHandler) Tick() error {
	h.drainHotplug()

	ready, err := h.poll()
	if err != nil {
		return apperrors.New(apperrors.KindInputLayer, "poll devices: %v", err)
	}

	for _, d := range ready {
		h.drainDevice(d)
	}

	if h.buf.shouldFlush(h.now()) {
		return h.Flush()
	}

	return nil
}

func (h *EventHandler) poll() ([]*device, error) {
	if len(h.devices) == 0 {
		return nil, nil
	}

	fds := make([]unix.PollFd, len(h.devices))
	for i, d := range h.devices {
		fds[i] = unix.PollFd{Fd: int32(d.fd), Events: unix.POLLIN}
	}

	timeoutMs := int(h.cfg.PollTimeout / time.Millisecond)
	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	var ready []*device
	for i, pfd := range fds {
		if pfd.Revents&unix.POLLIN != 0 {
			ready = append(ready, h.devices[i])
		}
	}
	return ready, nil
}

// drainDevice reads every fully-available input_event from d, pushing a
// keystroke.Event for each PRESSED EV_KEY record. A short read or EAGAIN
// ends the drain for this tick; any other error is logged and the device
// is left in place; dispatch failures are logged, not fatal, at runtime.
//
// The size trigger is checked after every push, not once the drain
// finishes: |pending| must never exceed BufferSize immediately after a
// push returns, so a single wakeup carrying a burst larger than
// BufferSize flushes as many times as the burst demands instead of
// accumulating past the bound.
func (h *EventHandler) drainDevice(d *device) {
	// Read the raw non-blocking fd directly: reads through d.file would
	// park on the runtime poller instead of returning EAGAIN.
	var raw [24]byte // sizeof(struct input_event), see evdev.RawEvent
	for {
		n, err := unix.Read(d.fd, raw[:])
		if err != nil || n < len(raw) {
			if err != nil && err != unix.EAGAIN && err != unix.EWOULDBLOCK {
				h.log.Debugf("eventhandler: read from %s ended: %v", d.path, err)
			}
			return
		}

		ev, err := evdev.Decode(bytes.NewReader(raw[:]))
		if err != nil {
			return
		}

		if !evdev.IsKeyboardPress(ev) {
			continue
		}

		name := evdev.KeyName(ev.Code, h.cfg.KeyNameMax)
		date := keystroke.DateForTime(h.now())

		h.buf.push(keystroke.Event{
			ScanCode: ev.Code,
			KeyName:  name,
			Date:     date,
		})

		h.log.Debugf("eventhandler: buffered scan_code=%d key=%s buffer_len=%d", ev.Code, name, h.buf.len())

		if h.buf.len() >= h.cfg.BufferSize {
			// Flush already logs failures itself; a failed flush still
			// clears the buffer, so the drain keeps making progress.
			_ = h.Flush()
		}
	}
}

// drainHotplug consumes any pending DEVICE_ADDED/DEVICE_REMOVED
// observations without blocking; these are observed for logging only.
func (h *EventHandler) drainHotplug() {
	for {
		select {
		case ev, ok := <-h.hotplugCh:
			if !ok {
				return
			}
			if ev.Kind == inputdevice.DeviceAdded {
				h.log.Infof("eventhandler: device added: %s (keyboard=%v)", ev.Info.Devnode, ev.Info.IsKeyboard)
			} else {
				h.log.Infof("eventhandler: device removed: %s", ev.Info.Devnode)
			}
		default:
			return
		}
	}
}

// Flush invokes the flush callback with the pending batch if non-empty,
// then clears the buffer and resets the window regardless of the
// callback's outcome: forward progress takes priority over retrying a
// failed flush.
func (h *EventHandler) Flush() error {
	if h.buf.len() == 0 {
		return nil
	}

	start := h.now()
	batch := h.buf.takeAll()
	h.buf.resetWindow(h.now())

	var flushErr error
	if h.flushCb != nil {
		flushErr = h.flushCb(batch)
	}

	if flushErr != nil {
		h.log.Errorf("eventhandler: flush of %d events failed: %v", len(batch), flushErr)
		return flushErr
	}

	h.log.Debugf("eventhandler: flushed %d events in %s", len(batch), h.now().Sub(start))
	return nil
}

// Close tears down the multiplexer and device-enumeration handles in
// reverse construction order.
func (h *EventHandler) Close() {
	if h.monitorCancel != nil {
		h.monitorCancel()
	}
	h.closeDevices()
}
