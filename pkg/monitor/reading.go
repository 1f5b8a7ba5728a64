package monitor

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/templumi/pkg/format"
	"github.com/itohio/templumi/pkg/sensor"
)

// Reading is one report line received from the sensor board.
type Reading struct {
	Timestamp time.Time
	Channel   sensor.Channel
	Whole     int64 // Text before the comma
	Tenth     int64 // Single digit after the comma
	Fault     bool  // The board sent "ERROR"
}

// Value returns the reading as a number. The digit after the comma is the ones
// digit of the scaled value, so this is only an approximation of the quantity.
func (r Reading) Value() float64 {
	if r.Whole < 0 {
		return float64(r.Whole) - float64(r.Tenth)/10
	}
	return float64(r.Whole) + float64(r.Tenth)/10
}

// Text returns the reading as the board printed it, without line terminator.
func (r Reading) Text() string {
	if r.Fault {
		return format.Error
	}
	return fmt.Sprintf("%d,%d %s", r.Whole, r.Tenth, r.Channel.Unit())
}

var (
	errorToken        = []byte(format.Error)
	temperatureSuffix = strings.TrimRight(sensor.Temperature.Suffix(), " \n")
	luminositySuffix  = strings.TrimRight(sensor.Luminosity.Suffix(), " \n")
)

// ParseLine parses one report line into a Reading.
// Format: <whole>,<digit> °C  or  <whole>,<digit>%  or  ERROR
// Example: 23,4 °C
func ParseLine(line string) (Reading, error) {
	line = strings.TrimRight(line, " \r\n")

	if line == format.Error {
		return Reading{Channel: sensor.Invalid, Fault: true}, nil
	}

	var (
		ch   sensor.Channel
		body string
	)
	switch {
	case strings.HasSuffix(line, temperatureSuffix):
		ch = sensor.Temperature
		body = strings.TrimSuffix(line, temperatureSuffix)
	case strings.HasSuffix(line, luminositySuffix):
		ch = sensor.Luminosity
		body = strings.TrimSuffix(line, luminositySuffix)
	default:
		return Reading{}, fmt.Errorf("invalid line format: unknown unit in %q", line)
	}

	wholeStr, tenthStr, ok := strings.Cut(strings.TrimRight(body, " "), ",")
	if !ok {
		return Reading{}, fmt.Errorf("invalid line format: expected comma in %q", line)
	}

	whole, err := strconv.ParseInt(wholeStr, 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid whole part: %w", err)
	}

	if len(tenthStr) != 1 || tenthStr[0] < '0' || tenthStr[0] > '9' {
		return Reading{}, fmt.Errorf("invalid digit after comma: %q", tenthStr)
	}

	return Reading{
		Channel: ch,
		Whole:   whole,
		Tenth:   int64(tenthStr[0] - '0'),
	}, nil
}

// scanReports is a bufio.SplitFunc that splits the stream into lines and also
// cuts out "ERROR", which the board sends without a line terminator.
func scanReports(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if bytes.HasPrefix(data, errorToken) {
		return len(errorToken), data[:len(errorToken)], nil
	}
	if !atEOF && len(data) < len(errorToken) && bytes.HasPrefix(errorToken, data) {
		return 0, nil, nil
	}

	advance, token, err = bufio.ScanLines(data, atEOF)
	if token != nil {
		if i := bytes.Index(token, errorToken); i > 0 {
			return i, token[:i], nil
		}
	}
	return advance, token, err
}
