package exif

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

type testTag struct {
	id    uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiTag(id uint16, s string) testTag {
	return testTag{id: id, typ: typeASCII, count: uint32(len(s) + 1), data: append([]byte(s), 0)}
}

func rationalTag(order binary.ByteOrder, id uint16, parts [3][2]uint32) testTag {
	data := make([]byte, 24)
	for i, p := range parts {
		order.PutUint32(data[i*8:], p[0])
		order.PutUint32(data[i*8+4:], p[1])
	}
	return testTag{id: id, typ: typeRational, count: 3, data: data}
}

func dmsTag(order binary.ByteOrder, id uint16, decimal float64) testTag {
	abs := math.Abs(decimal)
	deg := math.Floor(abs)
	minF := (abs - deg) * 60
	min := math.Floor(minF)
	sec := (minF - min) * 60
	return rationalTag(order, id, [3][2]uint32{
		{uint32(deg), 1},
		{uint32(min), 1},
		{uint32(math.Round(sec * 1e6)), 1e6},
	})
}

func dirSize(d []testTag) int {
	if d == nil {
		return 0
	}
	return 2 + 12*len(d) + 4
}

// buildTIFF lays out IFD0, the optional EXIF and GPS sub-IFDs, then a data
// area for values longer than four bytes.
func buildTIFF(order binary.ByteOrder, ifd0, sub, gps []testTag) []byte {
	if sub != nil {
		ifd0 = append(ifd0, testTag{id: tagExifIFDPointer, typ: typeLong, count: 1})
	}
	if gps != nil {
		ifd0 = append(ifd0, testTag{id: tagGPSIFDPointer, typ: typeLong, count: 1})
	}

	off0 := 8
	offSub := off0 + dirSize(ifd0)
	offGPS := offSub + dirSize(sub)
	dataOff := offGPS + dirSize(gps)

	for i := range ifd0 {
		switch ifd0[i].id {
		case tagExifIFDPointer:
			ifd0[i].data = u32(order, uint32(offSub))
		case tagGPSIFDPointer:
			ifd0[i].data = u32(order, uint32(offGPS))
		}
	}

	out := make([]byte, dataOff)
	if order == binary.LittleEndian {
		copy(out, "II")
	} else {
		copy(out, "MM")
	}
	order.PutUint16(out[2:], 0x002A)
	order.PutUint32(out[4:], uint32(off0))

	putDir(&out, off0, ifd0, order)
	if sub != nil {
		putDir(&out, offSub, sub, order)
	}
	if gps != nil {
		putDir(&out, offGPS, gps, order)
	}
	return out
}

func putDir(out *[]byte, at int, d []testTag, order binary.ByteOrder) {
	b := *out
	order.PutUint16(b[at:], uint16(len(d)))
	for i, t := range d {
		e := at + 2 + i*12
		order.PutUint16(b[e:], t.id)
		order.PutUint16(b[e+2:], t.typ)
		order.PutUint32(b[e+4:], t.count)
		if len(t.data) <= 4 {
			copy(b[e+8:e+12], t.data)
			continue
		}
		order.PutUint32(b[e+8:], uint32(len(*out)))
		*out = append(*out, t.data...)
		b = *out
	}
}

func u32(order binary.ByteOrder, v uint32) []byte {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	return b
}

func segment(marker byte, payload []byte) []byte {
	seg := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

func jpegWith(segments ...[]byte) []byte {
	out := []byte{0xFF, 0xD8}
	for _, s := range segments {
		out = append(out, s...)
	}
	return append(out, 0xFF, 0xD9)
}

func exifJPEG(tiff []byte) []byte {
	return jpegWith(
		segment(0xE0, []byte("JFIF\x00\x01\x02")),
		segment(markerAPP1, append([]byte(exifSignature), tiff...)),
		segment(0xDB, make([]byte, 65)),
	)
}

func gpsDir(order binary.ByteOrder, lat, lon float64) []testTag {
	latRef, lonRef := "N", "E"
	if lat < 0 {
		latRef = "S"
	}
	if lon < 0 {
		lonRef = "W"
	}
	return []testTag{
		asciiTag(tagGPSLatitudeRef, latRef),
		dmsTag(order, tagGPSLatitude, lat),
		asciiTag(tagGPSLongitudeRef, lonRef),
		dmsTag(order, tagGPSLongitude, lon),
	}
}

func TestDecode_NotAJPEG(t *testing.T) {
	assert.True(t, Decode(nil).Empty())
	assert.True(t, Decode([]byte("GIF89a")).Empty())
	assert.True(t, Decode([]byte{0xFF}).Empty())
}

func TestDecode_JPEGWithoutAPP1(t *testing.T) {
	buf := jpegWith(
		segment(0xE0, []byte("JFIF\x00\x01\x02")),
		segment(0xDB, make([]byte, 65)),
		segment(markerSOS, make([]byte, 10)),
	)

	rec := Decode(buf)
	assert.True(t, rec.Empty())
	assert.Nil(t, rec.GPS)
}

func TestDecode_APP1WithoutExifSignature(t *testing.T) {
	buf := jpegWith(segment(markerAPP1, []byte("http://ns.adobe.com/xap/1.0/\x00<x:xmpmeta/>")))
	assert.True(t, Decode(buf).Empty())
}

func TestDecode_DateTimeOriginalNormalized(t *testing.T) {
	order := binary.LittleEndian
	tiff := buildTIFF(order,
		[]testTag{asciiTag(tagDateTime, "2024:04:01 08:00:00")},
		[]testTag{asciiTag(tagDateTimeOriginal, "2024:03:05 10:15:30")},
		nil,
	)

	rec := Decode(exifJPEG(tiff))
	assert.Equal(t, "2024-03-05T10:15:30", rec.DateTimeOriginal)
	assert.Equal(t, "2024-04-01T08:00:00", rec.DateTime)
	assert.Equal(t, "2024-03-05T10:15:30", rec.CaptureTime())
	assert.Nil(t, rec.GPS)
}

func TestDecode_FallsBackToIFD0DateTime(t *testing.T) {
	order := binary.BigEndian
	tiff := buildTIFF(order,
		[]testTag{asciiTag(tagDateTime, "2019:12:31 23:59:59")},
		[]testTag{{id: 0x829A, typ: typeRational, count: 1, data: make([]byte, 8)}},
		nil,
	)

	rec := Decode(exifJPEG(tiff))
	assert.Empty(t, rec.DateTimeOriginal)
	assert.Equal(t, "2019-12-31T23:59:59", rec.CaptureTime())
}

func TestDecode_GPSHemispheres(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
	}{
		{"north east", 37.5665, 126.9780},
		{"south east", -33.8688, 151.2093},
		{"north west", 40.7128, -74.0060},
		{"south west", -22.9068, -43.1729},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := binary.LittleEndian
			tiff := buildTIFF(order, []testTag{}, nil, gpsDir(order, tc.lat, tc.lon))

			rec := Decode(exifJPEG(tiff))
			require.NotNil(t, rec.GPS)
			assert.Equal(t, tc.lat < 0, rec.GPS.Latitude < 0)
			assert.Equal(t, tc.lon < 0, rec.GPS.Longitude < 0)
			assert.InDelta(t, tc.lat, rec.GPS.Latitude, 1e-6)
			assert.InDelta(t, tc.lon, rec.GPS.Longitude, 1e-6)
		})
	}
}

func TestDecode_GPSRoundTripBothByteOrders(t *testing.T) {
	coords := [][2]float64{
		{0, 0},
		{0.000123, -0.000456},
		{89.999999, 179.999999},
		{-45.123456, 12.654321},
		{51.477928, -0.001545},
	}

	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		for _, c := range coords {
			tiff := buildTIFF(order, []testTag{}, nil, gpsDir(order, c[0], c[1]))
			rec := Decode(exifJPEG(tiff))
			require.NotNil(t, rec.GPS, "order %v coords %v", order, c)
			assert.InDelta(t, c[0], rec.GPS.Latitude, 1e-6)
			assert.InDelta(t, c[1], rec.GPS.Longitude, 1e-6)
		}
	}
}

func TestDecode_ZeroDenominatorIsZero(t *testing.T) {
	order := binary.BigEndian
	gps := []testTag{
		asciiTag(tagGPSLatitudeRef, "N"),
		rationalTag(order, tagGPSLatitude, [3][2]uint32{{10, 1}, {30, 0}, {0, 0}}),
		asciiTag(tagGPSLongitudeRef, "W"),
		rationalTag(order, tagGPSLongitude, [3][2]uint32{{20, 0}, {0, 1}, {36, 1}}),
	}
	tiff := buildTIFF(order, []testTag{}, nil, gps)

	rec := Decode(exifJPEG(tiff))
	require.NotNil(t, rec.GPS)
	assert.InDelta(t, 10.0, rec.GPS.Latitude, 1e-9)
	assert.InDelta(t, -0.01, rec.GPS.Longitude, 1e-9)
}

func TestDecode_LatitudeWithoutLongitudeYieldsNoGPS(t *testing.T) {
	order := binary.LittleEndian
	gps := []testTag{
		asciiTag(tagGPSLatitudeRef, "N"),
		dmsTag(order, tagGPSLatitude, 12.5),
	}
	tiff := buildTIFF(order, []testTag{}, nil, gps)

	assert.Nil(t, Decode(exifJPEG(tiff)).GPS)
}

func TestDecode_TruncatedBuffersNeverPanic(t *testing.T) {
	order := binary.LittleEndian
	tiff := buildTIFF(order,
		[]testTag{asciiTag(tagDateTime, "2020:01:02 03:04:05")},
		[]testTag{asciiTag(tagDateTimeOriginal, "2020:01:02 03:04:05")},
		gpsDir(order, 48.8584, 2.2945),
	)
	full := exifJPEG(tiff)

	for i := 0; i <= len(full); i++ {
		prefix := full[:i]
		assert.NotPanics(t, func() { Decode(prefix) }, "prefix length %d", i)
	}
}

func TestDecode_CorruptOffsetsDegradeGracefully(t *testing.T) {
	order := binary.LittleEndian
	tiff := buildTIFF(order, []testTag{asciiTag(tagDateTime, "2020:01:02 03:04:05")}, nil, nil)
	// point IFD0 far outside the segment
	order.PutUint32(tiff[4:], 0xFFFFFFF0)

	var rec Record
	assert.NotPanics(t, func() { rec = Decode(exifJPEG(tiff)) })
	assert.True(t, rec.Empty())
}

func TestDecode_StopsAtFirstAPP1(t *testing.T) {
	order := binary.LittleEndian
	tiff := buildTIFF(order, []testTag{asciiTag(tagDateTime, "2020:01:02 03:04:05")}, nil, nil)
	buf := jpegWith(
		segment(markerAPP1, []byte("http://ns.adobe.com/xap/1.0/\x00")),
		segment(markerAPP1, append([]byte(exifSignature), tiff...)),
	)

	assert.True(t, Decode(buf).Empty())
}

func TestView_InlineStrings(t *testing.T) {
	v := view{buf: []byte{'A', 'B', 0, 'Z'}, order: binary.LittleEndian}

	s, ok := v.str(entry{typ: typeASCII, count: 4, valueOff: 0})
	assert.True(t, ok)
	assert.Equal(t, "AB", s)

	// without a terminator the last counted byte is dropped
	v = view{buf: []byte{'N', 'S', 'E', 'W'}, order: binary.LittleEndian}
	s, ok = v.str(entry{typ: typeASCII, count: 3, valueOff: 0})
	assert.True(t, ok)
	assert.Equal(t, "NS", s)
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2024-03-05T10:15:30", normalizeDate("2024:03:05 10:15:30"))
	assert.Equal(t, "2024-03-05T10:15:30.123", normalizeDate(" 2024:03:05 10:15:30.123 "))
	assert.Equal(t, "", normalizeDate("   "))
	assert.Equal(t, "", normalizeDate("    :  :     :  :  "))
	assert.Equal(t, "", normalizeDate("0000:00:00 00:00:00"))
	assert.Equal(t, "", normalizeDate("2024-03-05 10:15:30"))
	assert.Equal(t, "", normalizeDate("2024:03:05"))
}

func TestDecode_BlankDateTimeOriginalFallsBack(t *testing.T) {
	order := binary.LittleEndian
	tiff := buildTIFF(order,
		[]testTag{asciiTag(tagDateTime, "2024:03:05 10:15:30")},
		[]testTag{asciiTag(tagDateTimeOriginal, "    :  :     :  :  ")},
		nil,
	)

	rec := Decode(exifJPEG(tiff))
	assert.Empty(t, rec.DateTimeOriginal)
	assert.Equal(t, "2024-03-05T10:15:30", rec.CaptureTime())
}

func TestDecode_SkipsMarkerFillBytes(t *testing.T) {
	order := binary.BigEndian
	tiff := buildTIFF(order, []testTag{asciiTag(tagDateTime, "2024:03:05 10:15:30")}, nil, nil)
	app1 := segment(markerAPP1, append([]byte(exifSignature), tiff...))

	for _, fill := range [][]byte{{0xFF}, {0xFF, 0xFF, 0xFF}} {
		buf := jpegWith(append(append([]byte{}, fill...), app1...))
		assert.Equal(t, "2024-03-05T10:15:30", Decode(buf).CaptureTime())
	}

	truncated := []byte{0xFF, 0xD8, 0xFF, 0xFF, 0xFF}
	assert.True(t, Decode(truncated).Empty())
}

func TestParseCaptureTime(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)

	got, ok := ParseCaptureTime("2024-03-05T10:15:30", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 15, 30, 0, loc), got)

	_, ok = ParseCaptureTime("0000-00-00T00:00:00", loc)
	assert.False(t, ok)

	_, ok = ParseCaptureTime("", loc)
	assert.False(t, ok)
}
