//go:build linux

package device

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/lumenwm/lumen/gfx"
)

// Linux fbdev ioctls (linux/fb.h).
const (
	fbioGetVScreenInfo = 0x4600
	fbioPutVScreenInfo = 0x4601
	fbioGetFScreenInfo = 0x4602
	fbioPanDisplay     = 0x4606
)

type fbBitfield struct {
	Offset   uint32
	Length   uint32
	MSBRight uint32
}

type fbVarScreenInfo struct {
	XRes         uint32
	YRes         uint32
	XResVirtual  uint32
	YResVirtual  uint32
	XOffset      uint32
	YOffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          fbBitfield
	Green        fbBitfield
	Blue         fbBitfield
	Transp       fbBitfield
	NonStd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	PixClock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HSyncLen     uint32
	VSyncLen     uint32
	Sync         uint32
	VMode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

type fbFixScreenInfo struct {
	ID           [16]byte
	SMemStart    uintptr
	SMemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MMIOStart    uintptr
	MMIOLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

// FBDevice drives a Linux framebuffer device node. Double buffering uses the
// virtual-resolution pan mechanism; partial flushes are expressed as msync
// over the touched scanlines so deferred-io devices pick them up.
type FBDevice struct {
	path        string
	fd          int
	mode        Mode
	mem         []byte
	pitch       int
	bufferCount int
	closed      bool

	// ioctlFn defaults to the real syscall; tests substitute a simulated
	// framebuffer the same way terminal devices take a simulation screen.
	ioctlFn func(fd int, req uintptr, arg unsafe.Pointer) error
}

func openPlatform(path string, mode Mode) (Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("device: open %s: %w", path, err)
	}
	d := &FBDevice{path: path, fd: fd}
	if err := d.SetMode(mode); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return d, nil
}

func (d *FBDevice) ioctl(req uintptr, arg unsafe.Pointer) error {
	if d.ioctlFn != nil {
		return d.ioctlFn(d.fd, req, arg)
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *FBDevice) Path() string { return d.path }

func (d *FBDevice) SetMode(mode Mode) error {
	if d.closed {
		return ErrClosed
	}
	if err := mode.Validate(); err != nil {
		return err
	}

	var vinfo fbVarScreenInfo
	if err := d.ioctl(fbioGetVScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		return fmt.Errorf("device: %s: query mode: %w", d.path, err)
	}
	// The hardware may already be in the requested mode's place when a later
	// step fails, so keep the original settings around to put back. Callers
	// rely on a failed SetMode leaving the previous mode in effect.
	orig := vinfo
	restore := func() {
		_ = d.ioctl(fbioPutVScreenInfo, unsafe.Pointer(&orig))
	}
	vinfo.XRes = uint32(mode.Width)
	vinfo.YRes = uint32(mode.Height)
	vinfo.XResVirtual = uint32(mode.Width)
	// Ask for two scanout pages; the device may grant only one.
	vinfo.YResVirtual = uint32(mode.Height) * 2
	vinfo.XOffset = 0
	vinfo.YOffset = 0
	vinfo.BitsPerPixel = BytesPerPixel * 8
	if err := d.ioctl(fbioPutVScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		vinfo.YResVirtual = uint32(mode.Height)
		if err := d.ioctl(fbioPutVScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrModeRejected, d.path, err)
		}
	}
	if err := d.ioctl(fbioGetVScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		restore()
		return fmt.Errorf("device: %s: re-query mode: %w", d.path, err)
	}
	if vinfo.XRes != uint32(mode.Width) || vinfo.YRes != uint32(mode.Height) {
		restore()
		return fmt.Errorf("%w: %s granted %dx%d, wanted %s",
			ErrModeRejected, d.path, vinfo.XRes, vinfo.YRes, mode)
	}

	var finfo fbFixScreenInfo
	if err := d.ioctl(fbioGetFScreenInfo, unsafe.Pointer(&finfo)); err != nil {
		restore()
		return fmt.Errorf("device: %s: query fixed info: %w", d.path, err)
	}

	mem, err := unix.Mmap(d.fd, 0, int(finfo.SMemLen),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		restore()
		return fmt.Errorf("device: %s: mmap %d bytes: %w", d.path, finfo.SMemLen, err)
	}
	if d.mem != nil {
		_ = unix.Munmap(d.mem)
	}

	d.mem = mem
	d.pitch = int(finfo.LineLength)
	d.bufferCount = 1
	if int(vinfo.YResVirtual) >= mode.Height*2 {
		d.bufferCount = 2
	}
	d.mode = mode
	return nil
}

func (d *FBDevice) CurrentMode() Mode { return d.mode }

func (d *FBDevice) Framebuffer() []byte { return d.mem }

func (d *FBDevice) Pitch() int { return d.pitch }

func (d *FBDevice) BufferOffset(index int) int {
	return index * d.pitch * d.mode.Height
}

func (d *FBDevice) SetBuffer(index int) error {
	if d.closed {
		return ErrClosed
	}
	if d.bufferCount < 2 {
		return ErrNotDoubleBuffer
	}
	if index < 0 || index >= d.bufferCount {
		return fmt.Errorf("%w: %d", ErrBadBufferIndex, index)
	}
	var vinfo fbVarScreenInfo
	if err := d.ioctl(fbioGetVScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		return fmt.Errorf("device: %s: query mode: %w", d.path, err)
	}
	vinfo.YOffset = uint32(index * d.mode.Height)
	if err := d.ioctl(fbioPanDisplay, unsafe.Pointer(&vinfo)); err != nil {
		return fmt.Errorf("device: %s: pan to buffer %d: %w", d.path, index, err)
	}
	return nil
}

func (d *FBDevice) FlushRects(bufferIndex int, rects []gfx.Rect) error {
	if d.closed {
		return ErrClosed
	}
	if len(rects) == 0 {
		return nil
	}
	// One device call per flush: sync the span of scanlines covering every
	// dirty rect in the named buffer.
	minY, maxY := d.mode.Height, 0
	for _, r := range rects {
		if r.IsEmpty() {
			continue
		}
		minY = min(minY, r.Y)
		maxY = max(maxY, r.Bottom())
	}
	if minY >= maxY {
		return nil
	}
	maxY = min(maxY, d.mode.Height)
	start := d.BufferOffset(bufferIndex) + minY*d.pitch
	end := d.BufferOffset(bufferIndex) + maxY*d.pitch
	if end > len(d.mem) {
		end = len(d.mem)
	}
	if start >= end {
		return nil
	}
	if err := unix.Msync(d.mem[start:end], unix.MS_SYNC); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFlushFailed, d.path, err)
	}
	return nil
}

func (d *FBDevice) FlushFrontBuffer(frontBufferIndex int, rect gfx.Rect) error {
	return d.FlushRects(frontBufferIndex, []gfx.Rect{rect})
}

func (d *FBDevice) Caps() Caps {
	return Caps{
		CanSetBuffer:    d.bufferCount >= 2,
		CanFlushBuffers: true,
	}
}

func (d *FBDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.mem != nil {
		_ = unix.Munmap(d.mem)
		d.mem = nil
	}
	return unix.Close(d.fd)
}
