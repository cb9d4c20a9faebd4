//go:build !windows

package device

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/sstallion/go-hid"
)

var errStop = errors.New("stop")

// Enumerate lists HID devices through hidapi. The named pipe proxy only
// exists on Windows.
func Enumerate(_ context.Context, useNamedPipe bool) iter.Seq2[*Info, error] {
	return func(yield func(*Info, error) bool) {
		if useNamedPipe {
			yield(nil, newErrorMessage(ErrNotSupported, "named pipe proxy is Windows only"))
			return
		}

		err := hid.Enumerate(hid.VendorIDAny, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
			if !yield(&Info{
				Path:         info.Path,
				VendorID:     info.VendorID,
				ProductID:    info.ProductID,
				Manufacturer: info.MfrStr,
				Product:      info.ProductStr,
				UsagePage:    info.UsagePage,
				Usage:        info.Usage,
			}, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(nil, err)
		}
	}
}

func OpenPath(_ context.Context, path string, useNamedPipe bool) (io.ReadWriteCloser, error) {
	if useNamedPipe {
		return nil, newErrorMessage(ErrNotSupported, "named pipe proxy is Windows only")
	}

	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// Exit releases hidapi resources.
func Exit() error {
	return hid.Exit()
}
