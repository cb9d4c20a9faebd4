package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/go-ctap/biogate/pkg/capability"
	"github.com/go-ctap/biogate/pkg/device"
	"github.com/go-ctap/biogate/pkg/sugar"
)

func (c *cli) probe(ctx context.Context) int {
	platform, closePlatform, err := c.open(ctx, c.cfg, c.opts)
	if err != nil {
		return c.fail(err)
	}
	defer func() {
		_ = closePlatform()
	}()

	r := capability.NewClassifier(c.opts...).Check(ctx, platform)
	_, _ = fmt.Fprintf(c.stdout, "%s: %s\n", r, r.Message())

	if r != capability.Available {
		return exitDenied
	}
	return exitOK
}

func (c *cli) unlock(ctx context.Context, cmd, arg string) int {
	ks, err := c.keystore()
	if err != nil {
		return c.fail(err)
	}

	op, payload := sugar.Encrypt, []byte(arg)
	if cmd == "decrypt" {
		op = sugar.Decrypt
		payload, err = base64.StdEncoding.DecodeString(arg)
		if err != nil {
			return c.fail(fmt.Errorf("ciphertext is not base64: %w", err))
		}
	}

	platform, closePlatform, err := c.open(ctx, c.cfg, c.opts)
	if err != nil {
		return c.fail(err)
	}
	defer func() {
		_ = closePlatform()
	}()

	gate := sugar.NewGate(platform, ks, c.cfg.PromptInfo(), c.opts...)
	res, err := gate.Unlock(ctx, op, payload)
	if err != nil {
		return c.fail(err)
	}
	if res.Output == nil {
		_, _ = fmt.Fprintln(c.stderr, res.Message())
		return exitDenied
	}

	if op == sugar.Encrypt {
		_, _ = fmt.Fprintln(c.stdout, base64.StdEncoding.EncodeToString(res.Output))
	} else {
		_, _ = fmt.Fprintln(c.stdout, string(res.Output))
	}
	return exitOK
}

func (c *cli) deleteKey() int {
	ks, err := c.keystore()
	if err != nil {
		return c.fail(err)
	}

	deleted, err := ks.DeleteKey()
	if err != nil {
		return c.fail(err)
	}
	if deleted {
		_, _ = fmt.Fprintf(c.stdout, "key %q deleted\n", ks.Alias())
	} else {
		_, _ = fmt.Fprintf(c.stdout, "no key %q\n", ks.Alias())
	}
	return exitOK
}

func (c *cli) devices(ctx context.Context) int {
	infos, err := sugar.EnumerateFIDODevices(ctx, c.opts...)
	if err != nil {
		return c.fail(err)
	}

	for _, info := range infos {
		_, _ = fmt.Fprintln(c.stdout, info.String())
	}
	return exitOK
}

// wink identifies the device the FIDO backend would pick.
func (c *cli) wink(ctx context.Context) int {
	dev, err := c.selectDevice(ctx, c.opts...)
	if err != nil {
		return c.fail(err)
	}
	defer func() {
		_ = dev.Close()
	}()

	if err := dev.Wink(); err != nil {
		if errors.Is(err, device.ErrNotSupported) {
			_, _ = fmt.Fprintln(c.stderr, "selected device cannot wink")
			return exitDenied
		}
		return c.fail(err)
	}
	_, _ = fmt.Fprintln(c.stdout, "selected device winked")
	return exitOK
}
