//go:build tinygo && avr

//go:generate tinygo flash -target=arduino

package main

import (
	"context"
	"machine"
	"time"

	"github.com/itohio/templumi/pkg/adc"
	"github.com/itohio/templumi/pkg/cycle"
	"github.com/itohio/templumi/pkg/uart"
)

// delayClock blocks the whole board for the requested duration.
type delayClock struct{}

func (delayClock) Sleep(_ context.Context, d time.Duration) error {
	time.Sleep(d)
	return nil
}

func (delayClock) Now() time.Time {
	return time.Now()
}

func main() {
	setupUART()

	scheduler := cycle.New(
		adc.New(converterUnit{}),
		uart.New(transmitterPort{}),
		cycle.WithClock(delayClock{}),
	)

	// Run only returns once the cycle reached an undefined state and sent ERROR.
	if err := scheduler.Run(context.Background()); err != nil {
		halt()
	}
}

// halt flashes the on-board LED forever so a faulted board is visible
// without a host attached.
func halt() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(FAULT_BLINK_PERIOD / 2)
		led.Low()
		time.Sleep(FAULT_BLINK_PERIOD / 2)
	}
}
