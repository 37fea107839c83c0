package normalize

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	maxTIFFBytes = 16 << 20
	maxIFDs      = 16

	tagExifIFD    = 0x8769
	tagGPSIFD     = 0x8825
	tagInteropIFD = 0xA005
)

// tiffTypeSizes is the byte size of one value of each TIFF field type.
var tiffTypeSizes = map[uint16]uint64{
	1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1, 7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8,
}

// exifPayload returns the TIFF structure holding the EXIF tags of a JPEG, or
// the head of a bare TIFF stream.
func exifPayload(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return nil, errors.Wrap(err, "peek")
	}
	switch string(head) {
	case "II*\x00", "MM\x00*":
		return io.ReadAll(io.LimitReader(br, maxTIFFBytes))
	}
	if head[0] != 0xFF || head[1] != 0xD8 {
		return nil, errors.New("no exif: not a jpeg or tiff")
	}
	br.Discard(2)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "jpeg marker")
		}
		if b != 0xFF {
			return nil, errors.Errorf("jpeg marker: unexpected byte %#x", b)
		}
		m, err := br.ReadByte()
		for err == nil && m == 0xFF {
			m, err = br.ReadByte()
		}
		if err != nil {
			return nil, errors.Wrap(err, "jpeg marker")
		}
		switch {
		case m == 0xDA || m == 0xD9:
			return nil, errors.New("no exif segment")
		case m == 0x01 || (m >= 0xD0 && m <= 0xD7):
			continue
		}
		var l uint16
		if err := binary.Read(br, binary.BigEndian, &l); err != nil {
			return nil, errors.Wrap(err, "segment length")
		}
		if l < 2 {
			return nil, errors.Errorf("segment length %d", l)
		}
		body := make([]byte, l-2)
		if _, err := io.ReadFull(br, body); err != nil {
			return nil, errors.Wrap(err, "segment body")
		}
		if m == 0xE1 && len(body) >= 6 && string(body[:6]) == "Exif\x00\x00" {
			return body[6:], nil
		}
	}
}

// checkTIFF walks every IFD the EXIF decoder will visit and rejects entries
// whose values would not fit inside b. Counts in a corrupt file can be large
// enough to exhaust memory when the values are expanded.
func checkTIFF(b []byte) error {
	if len(b) < 8 {
		return errors.New("tiff header truncated")
	}
	var order binary.ByteOrder
	switch string(b[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return errors.New("bad tiff byte order")
	}
	if order.Uint16(b[2:]) != 42 {
		return errors.New("bad tiff magic")
	}
	size := uint64(len(b))
	seen := map[uint32]bool{}
	queue := []uint32{order.Uint32(b[4:])}
	for len(queue) > 0 {
		off := queue[0]
		queue = queue[1:]
		if seen[off] {
			continue
		}
		seen[off] = true
		if len(seen) > maxIFDs {
			return errors.New("too many ifds")
		}
		if uint64(off)+2 > size {
			return errors.Errorf("ifd at %d out of range", off)
		}
		n := uint64(order.Uint16(b[off:]))
		end := uint64(off) + 2 + n*12
		if end+4 > size {
			return errors.Errorf("ifd at %d truncated", off)
		}
		for i := uint64(0); i < n; i++ {
			e := b[uint64(off)+2+i*12:]
			tag, typ, count := order.Uint16(e), order.Uint16(e[2:]), order.Uint32(e[4:])
			ts, ok := tiffTypeSizes[typ]
			if !ok {
				return errors.Errorf("tag %#x: unknown type %d", tag, typ)
			}
			total := ts * uint64(count)
			if total > size {
				return errors.Errorf("tag %#x: %d values do not fit", tag, count)
			}
			if total > 4 {
				if uint64(order.Uint32(e[8:]))+total > size {
					return errors.Errorf("tag %#x: values out of range", tag)
				}
			}
			switch tag {
			case tagExifIFD, tagGPSIFD, tagInteropIFD:
				queue = append(queue, order.Uint32(e[8:]))
			}
		}
		if next := order.Uint32(b[end:]); next != 0 {
			queue = append(queue, next)
		}
	}
	return nil
}
