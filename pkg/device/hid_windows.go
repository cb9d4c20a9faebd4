package device

import (
	"context"
	"io"
	"iter"

	"github.com/Microsoft/go-winio"
	cgofreehid "github.com/go-ctap/hid"

	"github.com/go-ctap/biogate/pkg/hidproxy"
)

// Enumerate lists HID devices, either directly with the cgo-free Windows
// HID backend or through the proxy service when useNamedPipe is set.
func Enumerate(ctx context.Context, useNamedPipe bool) iter.Seq2[*Info, error] {
	return func(yield func(*Info, error) bool) {
		if useNamedPipe {
			conn, err := winio.DialPipeContext(ctx, hidproxy.NamedPipePath)
			if err != nil {
				yield(nil, err)
				return
			}
			defer func() {
				_ = conn.Close()
			}()

			infos, err := hidproxy.Enumerate(conn)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, info := range infos {
				if !yield(&Info{
					Path:         info.Path,
					VendorID:     info.VendorID,
					ProductID:    info.ProductID,
					Manufacturer: info.MfrStr,
					Product:      info.ProductStr,
					UsagePage:    info.UsagePage,
					Usage:        info.Usage,
				}, nil) {
					return
				}
			}
			return
		}

		for info, err := range cgofreehid.Enumerate() {
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(&Info{
				Path:         info.Path,
				VendorID:     info.VendorID,
				ProductID:    info.ProductID,
				Manufacturer: info.MfrStr,
				Product:      info.ProductStr,
				UsagePage:    info.UsagePage,
				Usage:        info.Usage,
			}, nil) {
				return
			}
		}
	}
}

func OpenPath(ctx context.Context, path string, useNamedPipe bool) (io.ReadWriteCloser, error) {
	if useNamedPipe {
		conn, err := winio.DialPipeContext(ctx, hidproxy.NamedPipePath)
		if err != nil {
			return nil, err
		}

		if err := hidproxy.Start(conn, path); err != nil {
			_ = conn.Close()
			return nil, err
		}

		return conn, nil
	}

	dev, err := cgofreehid.OpenPath(path)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// Exit is a no-op; the cgo-free backend holds no global state.
func Exit() error {
	return nil
}
