//go:build linux

package netmon

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	ethtoolGFeatures = 0x0000003a // ETHTOOL_GFEATURES
	featureWords     = 2          // 64 feature bits in 32-bit blocks
)

// ethtool_get_features_block
type featuresBlock struct {
	Available    uint32
	Requested    uint32
	Active       uint32
	NeverChanged uint32
}

// ethtool_gfeatures
type gfeatures struct {
	Cmd    uint32
	Size   uint32
	Blocks [featureWords]featuresBlock
}

// ifreq with the ifr_data member of the union.
type ifreqData struct {
	Name [unix.IFNAMSIZ]byte
	Data unsafe.Pointer
	_    [24 - unsafe.Sizeof(uintptr(0))]byte
}

// featureReader queries active netdev features over an ethtool ioctl socket.
type featureReader struct {
	fd int
}

func newFeatureReader() (*featureReader, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("ethtool socket: %w", err)
	}
	return &featureReader{fd: fd}, nil
}

// Active returns the active feature word of the named device.
func (r *featureReader) Active(name string) (uint64, error) {
	if len(name) >= unix.IFNAMSIZ {
		return 0, fmt.Errorf("interface name %q too long", name)
	}

	req := gfeatures{Cmd: ethtoolGFeatures, Size: featureWords}
	var ifr ifreqData
	copy(ifr.Name[:], name)
	ifr.Data = unsafe.Pointer(&req)

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(r.fd), uintptr(unix.SIOCETHTOOL), uintptr(unsafe.Pointer(&ifr)))
	if errno != 0 {
		return 0, fmt.Errorf("ETHTOOL_GFEATURES on %s: %w", name, errno)
	}

	return uint64(req.Blocks[0].Active) | uint64(req.Blocks[1].Active)<<32, nil
}

func (r *featureReader) Close() error {
	if r == nil {
		return nil
	}
	return unix.Close(r.fd)
}
