package device

import "fmt"

const (
	fidoUsagePage = 0xf1d0
	fidoUsage     = 0x01
)

// Info describes an attached HID device.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	UsagePage    uint16
	Usage        uint16
}

// IsFIDO reports whether the device exposes the FIDO HID usage.
func (i *Info) IsFIDO() bool {
	return i.UsagePage == fidoUsagePage && i.Usage == fidoUsage
}

func (i *Info) String() string {
	return fmt.Sprintf("%04x:%04x %s %s (%s)", i.VendorID, i.ProductID, i.Manufacturer, i.Product, i.Path)
}
