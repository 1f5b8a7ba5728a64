package sensor

import "fmt"

// Channel identifies an analog input by its converter multiplexer selector.
type Channel uint8

const (
	// Temperature is the LM35 on ADC0.
	Temperature Channel = 0x00
	// Luminosity is the LDR divider on ADC5.
	Luminosity Channel = 0x05
	// Invalid is the selector reported when the cycle runs into an undefined state.
	Invalid Channel = 10
)

// Raw is an unscaled 10-bit conversion result (0-1023).
type Raw uint16

const (
	// MaxRaw is the largest value the 10-bit converter produces.
	MaxRaw Raw = 1023

	// TemperatureScale converts raw counts into tenths of a degree (4.88 mV/LSB, 10 mV/°C).
	TemperatureScale float32 = 4.88
	// LuminosityScale converts raw counts into tenths of a percent of full scale.
	LuminosityScale float32 = 0.9765625
	// LuminosityOffset inverts the LDR reading so that more light means a larger value.
	LuminosityOffset float32 = 1024
)

// Channels returns the sampled channels in cycle order.
func Channels() []Channel {
	return []Channel{Temperature, Luminosity}
}

// Valid reports whether c is one of the two wired sensors.
func (c Channel) Valid() bool {
	return c == Temperature || c == Luminosity
}

// Selector returns the multiplexer value that routes the input to the converter.
func (c Channel) Selector() uint8 {
	return uint8(c)
}

// DigitalDisable returns the digital input buffer mask for the channel's pin.
func (c Channel) DigitalDisable() uint8 {
	if c > 7 {
		return 0
	}
	return 1 << c
}

// Unit returns the physical unit, or "" for an invalid channel.
func (c Channel) Unit() string {
	switch c {
	case Temperature:
		return "°C"
	case Luminosity:
		return "%"
	default:
		return ""
	}
}

// Suffix returns the text that terminates a report line for the channel.
func (c Channel) Suffix() string {
	switch c {
	case Temperature:
		return " °C \n"
	case Luminosity:
		return "% \n"
	default:
		return ""
	}
}

// Convert scales raw into tenths of the channel's unit.
// Single precision matches the firmware's float arithmetic.
func (c Channel) Convert(raw Raw) (float32, bool) {
	switch c {
	case Temperature:
		return TemperatureScale * float32(raw), true
	case Luminosity:
		return LuminosityOffset - float32(raw)*LuminosityScale, true
	default:
		return 0, false
	}
}

func (c Channel) String() string {
	switch c {
	case Temperature:
		return "temperature"
	case Luminosity:
		return "luminosity"
	default:
		return fmt.Sprintf("channel(%d)", uint8(c))
	}
}

// ParseChannel maps a channel name back to its identity.
func ParseChannel(name string) (Channel, error) {
	switch name {
	case "temperature":
		return Temperature, nil
	case "luminosity":
		return Luminosity, nil
	default:
		return Invalid, fmt.Errorf("unknown channel %q", name)
	}
}
