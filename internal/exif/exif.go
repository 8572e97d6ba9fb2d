// internal/exif/exif.go
package exif

import (
	"encoding/binary"
	"strings"
	"time"
)

// JPEG markers
const (
	markerPrefix = 0xFF
	markerSOI    = 0xD8
	markerEOI    = 0xD9
	markerSOS    = 0xDA
	markerAPP1   = 0xE1
)

// IFD tags
const (
	tagDateTime         = 0x0132
	tagExifIFDPointer   = 0x8769
	tagGPSIFDPointer    = 0x8825
	tagDateTimeOriginal = 0x9003

	tagGPSLatitudeRef  = 0x0001
	tagGPSLatitude     = 0x0002
	tagGPSLongitudeRef = 0x0003
	tagGPSLongitude    = 0x0004
)

const (
	ifdEntrySize  = 12
	exifSignature = "Exif\x00\x00"

	// CaptureTimeLayout is the layout of normalized capture timestamps.
	CaptureTimeLayout = "2006-01-02T15:04:05"
)

// Record represents decoded EXIF metadata. Empty strings and a nil GPS mean
// the value was absent.
type Record struct {
	DateTimeOriginal string
	DateTime         string
	GPS              *Coordinates
}

// Coordinates are signed decimal degrees (negative = South/West).
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// CaptureTime returns DateTimeOriginal, falling back to DateTime.
func (r Record) CaptureTime() string {
	if r.DateTimeOriginal != "" {
		return r.DateTimeOriginal
	}
	return r.DateTime
}

// Empty reports whether no field was decoded.
func (r Record) Empty() bool {
	return r.DateTimeOriginal == "" && r.DateTime == "" && r.GPS == nil
}

// ParseCaptureTime parses a normalized capture timestamp in loc.
func ParseCaptureTime(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(CaptureTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Decode extracts the capture timestamp and GPS position from a JPEG buffer.
// It never fails: malformed or truncated input yields a partial or empty
// Record.
func Decode(buf []byte) Record {
	tiff, ok := findExifSegment(buf)
	if !ok {
		return Record{}
	}
	return decodeTIFF(tiff)
}

// findExifSegment walks the JPEG marker sequence and returns the TIFF payload
// of the first APP1 segment, if it carries the Exif signature.
func findExifSegment(buf []byte) ([]byte, bool) {
	if len(buf) < 2 || buf[0] != markerPrefix || buf[1] != markerSOI {
		return nil, false
	}

	jpeg := view{buf: buf, order: binary.BigEndian}
	off := uint32(2)
	for {
		head, ok := jpeg.bytes(off, 2)
		if !ok || head[0] != markerPrefix {
			return nil, false
		}
		// fill bytes may pad any marker
		for head[1] == markerPrefix {
			off++
			if head, ok = jpeg.bytes(off, 2); !ok {
				return nil, false
			}
		}
		marker := head[1]
		if marker == markerSOI || marker == markerEOI {
			off += 2
			continue
		}
		if marker == markerSOS {
			return nil, false
		}

		length, ok := jpeg.u16(off + 2)
		if !ok || length < 2 {
			return nil, false
		}

		if marker == markerAPP1 {
			start := off + 4
			end := uint64(off) + 2 + uint64(length)
			if end > uint64(len(buf)) {
				end = uint64(len(buf))
			}
			if uint64(start)+uint64(len(exifSignature)) > end {
				return nil, false
			}
			segment := buf[start:end]
			if string(segment[:len(exifSignature)]) != exifSignature {
				return nil, false
			}
			return segment[len(exifSignature):], true
		}

		off += 2 + uint32(length)
	}
}

type entry struct {
	typ   uint16
	count uint32
	// valueOff is the offset of the 4-byte value-or-offset field.
	valueOff uint32
}

type ifd map[uint16]entry

func decodeTIFF(tiff []byte) Record {
	var rec Record
	if len(tiff) < 8 {
		return rec
	}

	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return rec
	}
	v := view{buf: tiff, order: order}

	ifd0Off, ok := v.u32(4)
	if !ok {
		return rec
	}
	ifd0 := v.readIFD(ifd0Off)

	var sub ifd
	if e, ok := ifd0[tagExifIFDPointer]; ok {
		if ptr, ok := v.u32(e.valueOff); ok {
			sub = v.readIFD(ptr)
		}
	}

	rec.DateTimeOriginal = firstDate(v, tagDateTimeOriginal, sub, ifd0)
	rec.DateTime = firstDate(v, tagDateTime, sub, ifd0)

	if e, ok := ifd0[tagGPSIFDPointer]; ok {
		if ptr, ok := v.u32(e.valueOff); ok {
			rec.GPS = v.readGPS(v.readIFD(ptr))
		}
	}

	return rec
}

// readIFD collects the entries of the directory at off. Entries past the end
// of the buffer are dropped.
func (v view) readIFD(off uint32) ifd {
	entries := ifd{}
	n, ok := v.u16(off)
	if !ok {
		return entries
	}
	for i := uint32(0); i < uint32(n); i++ {
		base := off + 2 + i*ifdEntrySize
		raw, ok := v.bytes(base, ifdEntrySize)
		if !ok {
			break
		}
		tag := v.order.Uint16(raw[0:2])
		entries[tag] = entry{
			typ:      v.order.Uint16(raw[2:4]),
			count:    v.order.Uint32(raw[4:8]),
			valueOff: base + 8,
		}
	}
	return entries
}

// str reads an ASCII value. Values longer than 4 bytes live at an offset
// relative to the TIFF header.
func (v view) str(e entry) (string, bool) {
	if e.count == 0 {
		return "", false
	}
	at := e.valueOff
	if e.count > 4 {
		ptr, ok := v.u32(e.valueOff)
		if !ok {
			return "", false
		}
		at = ptr
	}
	raw, ok := v.bytes(at, e.count)
	if !ok {
		return "", false
	}
	raw = raw[:e.count-1]
	for i, b := range raw {
		if b == 0 {
			raw = raw[:i]
			break
		}
	}
	return string(raw), true
}

func firstDate(v view, tag uint16, dirs ...ifd) string {
	for _, dir := range dirs {
		e, ok := dir[tag]
		if !ok {
			continue
		}
		s, ok := v.str(e)
		if !ok {
			continue
		}
		if norm := normalizeDate(s); norm != "" {
			return norm
		}
	}
	return ""
}

// normalizeDate turns "YYYY:MM:DD HH:MM:SS" into "YYYY-MM-DDTHH:MM:SS".
// Blank, all-zero and otherwise malformed values are absent.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if !validDate(s) {
		return ""
	}
	s = strings.Replace(s, ":", "-", 2)
	return strings.Replace(s, " ", "T", 1)
}

const dateShape = "dddd:dd:dd dd:dd:dd"

func validDate(s string) bool {
	if len(s) < len(dateShape) {
		return false
	}
	zero := true
	for i := 0; i < len(dateShape); i++ {
		c := s[i]
		if dateShape[i] != 'd' {
			if c != dateShape[i] {
				return false
			}
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
		if c != '0' {
			zero = false
		}
	}
	return !zero
}

func (v view) readGPS(dir ifd) *Coordinates {
	lat, ok := v.dms(dir, tagGPSLatitude, tagGPSLatitudeRef, "S")
	if !ok {
		return nil
	}
	lon, ok := v.dms(dir, tagGPSLongitude, tagGPSLongitudeRef, "W")
	if !ok {
		return nil
	}
	return &Coordinates{Latitude: lat, Longitude: lon}
}

// dms converts a degrees/minutes/seconds triple to signed decimal degrees.
func (v view) dms(dir ifd, valueTag, refTag uint16, negativeRef string) (float64, bool) {
	e, ok := dir[valueTag]
	if !ok || e.count < 3 {
		return 0, false
	}
	ptr, ok := v.u32(e.valueOff)
	if !ok {
		return 0, false
	}
	var parts [3]float64
	for i := range parts {
		parts[i], ok = v.rational(ptr + uint32(i)*8)
		if !ok {
			return 0, false
		}
	}
	decimal := parts[0] + parts[1]/60 + parts[2]/3600

	if ref, ok := dir[refTag]; ok {
		if s, ok := v.str(ref); ok && strings.EqualFold(strings.TrimSpace(s), negativeRef) {
			decimal = -decimal
		}
	}
	return decimal, true
}
