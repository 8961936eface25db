package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// mp4Duration reads the presentation duration from the moov/mvhd box of an
// MP4-family container without decoding any media data.
func mp4Duration(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}

	moov, err := findBox(file, 0, info.Size(), "moov")
	if err != nil {
		return 0, err
	}
	mvhd, err := findBox(file, moov.payloadOffset, moov.payloadEnd(), "mvhd")
	if err != nil {
		return 0, err
	}
	return readMvhd(file, mvhd)
}

type box struct {
	payloadOffset int64
	payloadSize   int64
}

func (b box) payloadEnd() int64 { return b.payloadOffset + b.payloadSize }

// findBox scans the boxes in [offset, end) for the first one with the given
// type and returns its payload bounds.
func findBox(r io.ReaderAt, offset, end int64, boxType string) (box, error) {
	var header [8]byte
	for offset+8 <= end {
		if _, err := r.ReadAt(header[:], offset); err != nil {
			return box{}, fmt.Errorf("failed to read box header: %w", err)
		}
		size := int64(binary.BigEndian.Uint32(header[0:4]))
		headerLen := int64(8)

		switch size {
		case 0:
			// Box extends to the end of the enclosing container.
			size = end - offset
		case 1:
			var large [8]byte
			if _, err := r.ReadAt(large[:], offset+8); err != nil {
				return box{}, fmt.Errorf("failed to read large box size: %w", err)
			}
			size = int64(binary.BigEndian.Uint64(large[:]))
			headerLen = 16
		}
		if size < headerLen || offset+size > end {
			return box{}, fmt.Errorf("malformed box %q at offset %d", header[4:8], offset)
		}

		if string(header[4:8]) == boxType {
			return box{payloadOffset: offset + headerLen, payloadSize: size - headerLen}, nil
		}
		offset += size
	}
	return box{}, fmt.Errorf("box %q not found", boxType)
}

// readMvhd extracts timescale and duration from an mvhd payload. Version 0
// uses 32-bit times, version 1 uses 64-bit.
func readMvhd(r io.ReaderAt, b box) (float64, error) {
	buf := make([]byte, 32)
	if b.payloadSize < int64(len(buf)) {
		return 0, errors.New("mvhd box too short")
	}
	if _, err := r.ReadAt(buf, b.payloadOffset); err != nil {
		return 0, fmt.Errorf("failed to read mvhd payload: %w", err)
	}

	var timescale uint32
	var duration uint64
	switch version := buf[0]; version {
	case 0:
		// version/flags(4) creation(4) modification(4) timescale(4) duration(4)
		timescale = binary.BigEndian.Uint32(buf[12:16])
		duration = uint64(binary.BigEndian.Uint32(buf[16:20]))
	case 1:
		// version/flags(4) creation(8) modification(8) timescale(4) duration(8)
		timescale = binary.BigEndian.Uint32(buf[20:24])
		duration = binary.BigEndian.Uint64(buf[24:32])
	default:
		return 0, fmt.Errorf("unsupported mvhd version %d", version)
	}

	if timescale == 0 {
		return 0, errors.New("mvhd timescale is zero")
	}
	return float64(duration) / float64(timescale), nil
}
