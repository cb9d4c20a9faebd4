package sugar

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/go-ctap/biogate/pkg/ctaptypes"
	"github.com/go-ctap/biogate/pkg/device"
	"github.com/go-ctap/biogate/pkg/options"
)

// EnumerateFIDODevices lists attached HID devices exposing the FIDO usage.
func EnumerateFIDODevices(ctx context.Context, opts ...options.Option) ([]*device.Info, error) {
	oo := options.NewOptions(opts...)

	devInfos := make([]*device.Info, 0)
	for devInfo, err := range device.Enumerate(ctx, oo.UseNamedPipe) {
		if err != nil {
			return nil, err
		}

		if !devInfo.IsFIDO() {
			continue
		}

		devInfos = append(devInfos, devInfo)
	}

	return devInfos, nil
}

// SelectDevice opens the only FIDO device, or asks the user to touch one
// when several are attached. Touch selection needs FIDO 2.1 (including PRE).
func SelectDevice(ctx context.Context, opts ...options.Option) (*device.Device, error) {
	oo := options.NewOptions(opts...)

	if oo.Paths == nil {
		devInfos, err := EnumerateFIDODevices(ctx, opts...)
		if err != nil {
			return nil, err
		}
		oo.Paths = lo.Map(devInfos, func(devInfo *device.Info, _ int) string {
			return devInfo.Path
		})
	}

	switch len(oo.Paths) {
	case 0:
		return nil, device.ErrNoDevices
	case 1:
		return device.New(ctx, oo.Paths[0], opts...)
	}

	devices := make([]*device.Device, 0, len(oo.Paths))
	for _, p := range oo.Paths {
		dev, err := device.New(ctx, p, opts...)
		if err != nil {
			oo.Logger.Warn("cannot open device", "path", p, "err", err)
			continue
		}

		info := dev.Info()
		if !info.Versions.Supports(ctaptypes.FIDO_2_1) &&
			!info.Versions.Supports(ctaptypes.FIDO_2_1_PRE) {
			_ = dev.Close()
			continue
		}

		devices = append(devices, dev)
	}

	return selectAmong(ctx, devices)
}

// selectAmong races Selection on every device; the first touch wins and the
// other devices are closed.
func selectAmong(ctx context.Context, devices []*device.Device) (*device.Device, error) {
	if len(devices) == 0 {
		return nil, errors.New("sugar: no supported devices found")
	}

	selection := make(chan mo.Either[*device.Device, error], 1)

	var (
		wg   sync.WaitGroup
		once sync.Once
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, dev := range devices {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Selection() blocks until ctx is canceled or the device is touched.
			err := dev.Selection(ctx)

			if ctx.Err() == nil {
				once.Do(func() {
					cancel()
					if err != nil {
						selection <- mo.Right[*device.Device, error](err)
						return
					}
					selection <- mo.Left[*device.Device, error](dev)
				})
			}
		}()
	}

	wg.Wait()

	var sel mo.Either[*device.Device, error]
	select {
	case sel = <-selection:
	default:
		// The parent context ended before anyone touched a device.
		sel = mo.Right[*device.Device, error](ctx.Err())
	}

	selected, ok := sel.Left()
	for _, dev := range devices {
		if ok && dev == selected {
			continue
		}
		_ = dev.Close()
	}

	if err, isErr := sel.Right(); isErr {
		return nil, err
	}
	return selected, nil
}
