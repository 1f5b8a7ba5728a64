package format

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/itohio/templumi/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	temperatureLine = regexp.MustCompile(`^-?\d+,\d °C \n$`)
	luminosityLine  = regexp.MustCompile(`^-?\d+,\d% \n$`)
)

func wholePart(t *testing.T, line string) int64 {
	t.Helper()
	idx := strings.IndexByte(line, ',')
	require.Greater(t, idx, 0, "no comma in %q", line)
	v, err := strconv.ParseInt(line[:idx], 10, 64)
	require.NoError(t, err)
	return v
}

func TestRender_Examples(t *testing.T) {
	tests := []struct {
		name    string
		channel sensor.Channel
		raw     sensor.Raw
		want    string
	}{
		{"temperature zero", sensor.Temperature, 0, "0,0 °C \n"},
		{"temperature 102.4", sensor.Temperature, 210, "102,4 °C \n"},
		{"temperature 500", sensor.Temperature, 500, "244,0 °C \n"},
		{"temperature room", sensor.Temperature, 48, "23,4 °C \n"},
		{"temperature max", sensor.Temperature, sensor.MaxRaw, "499,2 °C \n"},
		{"luminosity bright", sensor.Luminosity, 0, "102,4% \n"},
		{"luminosity dark", sensor.Luminosity, sensor.MaxRaw, "2,4% \n"},
		{"luminosity half", sensor.Luminosity, 512, "52,4% \n"},
		{"luminosity 500", sensor.Luminosity, 500, "53,5% \n"},
		{"invalid", sensor.Invalid, 500, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Render(tt.channel, tt.raw)))
		})
	}
}

func TestRender_TemperatureAllRaw(t *testing.T) {
	for r := sensor.Raw(0); r <= sensor.MaxRaw; r++ {
		line := string(Render(sensor.Temperature, r))
		require.Regexp(t, temperatureLine, line, "raw %d", r)
		want := int64(math.Floor(4.88 * float64(r) / 10))
		assert.Equal(t, want, wholePart(t, line), "raw %d", r)
	}
}

func TestRender_LuminosityAllRaw(t *testing.T) {
	for r := sensor.Raw(0); r <= sensor.MaxRaw; r++ {
		line := string(Render(sensor.Luminosity, r))
		require.Regexp(t, luminosityLine, line, "raw %d", r)
		want := int64(math.Floor((1024 - float64(r)*0.9765625) / 10))
		assert.Equal(t, want, wholePart(t, line), "raw %d", r)
	}
}

func TestRender_InvalidChannel(t *testing.T) {
	for _, c := range []sensor.Channel{sensor.Invalid, 1, 2, 7, 255} {
		for _, r := range []sensor.Raw{0, 1, 512, sensor.MaxRaw} {
			assert.Equal(t, Error, string(Render(c, r)))
		}
	}
}

func TestAppendReading_Appends(t *testing.T) {
	dst := []byte("> ")
	dst = AppendReading(dst, sensor.Temperature, 210)
	assert.Equal(t, "> 102,4 °C \n", string(dst))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		v            float32
		whole, tenth int64
	}{
		{0, 0, 0},
		{1024.8, 102, 4},
		{9.99, 0, 9},
		{10, 1, 0},
		{-25.5, -2, 5},
	}

	for _, tt := range tests {
		whole, tenth := Split(tt.v)
		assert.Equal(t, tt.whole, whole, "whole of %v", tt.v)
		assert.Equal(t, tt.tenth, tenth, "tenth of %v", tt.v)
	}
}

func TestAppendNumber(t *testing.T) {
	tests := []struct {
		v    int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{10, "10"},
		{102, "102"},
		{-1, "-1"},
		{-450, "-450"},
		{99999999999999999, "99999999999999999"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(AppendNumber(nil, tt.v)))
	}
}

func TestAppendNumber_RoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 9, 10, 11, 255, 1023, -1023, 65535, 1 << 31, -(1 << 31), 12345678901234567}
	for v := int64(-2000); v <= 2000; v += 7 {
		values = append(values, v)
	}

	for _, v := range values {
		text := string(AppendNumber(nil, v))
		got, err := strconv.ParseInt(text, 10, 64)
		require.NoError(t, err, "value %d rendered as %q", v, text)
		assert.Equal(t, v, got)
	}
}

func TestAppendNumber_KeepsLowDigits(t *testing.T) {
	// 19 digits; only the low 17 fit the buffer.
	got := string(AppendNumber(nil, 1234567890123456789))
	assert.Len(t, got, MaxDigits)
	assert.Equal(t, "34567890123456789", got)

	got = string(AppendNumber(nil, math.MinInt64))
	assert.Equal(t, "-"+strconv.FormatUint(1<<63, 10)[2:], got)
}
