// Package format renders conversion results as the text lines sent over the serial link.
//
// A line is "<whole>,<digit><suffix>" where whole is the scaled value divided by ten
// and digit is the ones digit of the truncated scaled value. The digit is not a
// rounded decimal; consumers rely on the exact text.
package format

import (
	"github.com/chewxy/math32"
	"github.com/itohio/templumi/pkg/sensor"
)

// Error is emitted in place of a reading for an unknown channel.
const Error = "ERROR"

const (
	// numberBufferSize mirrors the 20 byte scratch buffer of the firmware.
	numberBufferSize = 20
	// MaxDigits is the number of digits AppendNumber keeps.
	MaxDigits = 17
)

// Render returns the report line for raw sampled on channel c.
func Render(c sensor.Channel, raw sensor.Raw) []byte {
	return AppendReading(make([]byte, 0, 16), c, raw)
}

// AppendReading appends the report line for raw sampled on channel c to dst.
func AppendReading(dst []byte, c sensor.Channel, raw sensor.Raw) []byte {
	v, ok := c.Convert(raw)
	if !ok {
		return append(dst, Error...)
	}

	whole, tenth := Split(v)
	dst = AppendNumber(dst, whole)
	dst = append(dst, ',')
	dst = AppendNumber(dst, tenth)
	return append(dst, c.Suffix()...)
}

// Split returns the integer part of v/10 and the ones digit of the truncated v.
func Split(v float32) (whole, tenth int64) {
	whole = int64(math32.Trunc(v / 10))
	tenth = int64(math32.Trunc(v)) % 10
	if tenth < 0 {
		tenth = -tenth
	}
	return whole, tenth
}

// AppendNumber appends the decimal text of v to dst.
//
// Digits are produced least significant first into a fixed buffer, so at most
// MaxDigits low digits survive. Zero renders as "0" and negative values get a
// leading '-'.
func AppendNumber(dst []byte, v int64) []byte {
	var buf [numberBufferSize]byte

	neg := v < 0
	u := uint64(v)
	if neg {
		u = -u
	}

	i := numberBufferSize - 2
	for {
		buf[i] = byte(u%10) + '0'
		u /= 10
		i--
		if u == 0 || i < numberBufferSize-2-MaxDigits+1 {
			break
		}
	}

	if neg {
		dst = append(dst, '-')
	}
	return append(dst, buf[i+1:numberBufferSize-1]...)
}
