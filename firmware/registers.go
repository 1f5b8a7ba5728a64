//go:build tinygo && avr

package main

import (
	"device/avr"
	"time"
)

const (
	// ADC configuration
	ADC_ENABLE_PRESCALER_128 = 0x87 // ADEN | ADPS2:0, 125 kHz conversion clock at 16 MHz
	ADC_START_CONVERSION     = 0x40 // ADSC
	ADC_INTERRUPT_FLAG       = 0x10 // ADIF, cleared by writing 1

	// Serial configuration
	// 16 MHz / (16 * (8 + 1)) = 111111 baud, within 3.5% of 115200.
	UART_BAUD_HIGH          = 0x00
	UART_BAUD_LOW           = 0x08
	UART_TX_COMPLETE        = 0x40 // TXC0, cleared by writing 1
	UART_TX_ENABLE          = 0x08 // TXEN0
	UART_FRAME_8N1          = 0x06 // UCSZ01 | UCSZ00
	UART_DATA_REGISTER_IDLE = 0x20 // UDRE0

	FAULT_BLINK_PERIOD = 200 * time.Millisecond
)

// converterUnit drives the ATmega328p ADC registers.
type converterUnit struct{}

func (converterUnit) Select(selector, mask uint8) {
	avr.ADMUX.Set(selector)
	avr.ADCSRA.Set(ADC_ENABLE_PRESCALER_128)
	avr.ADCSRB.Set(0)
	avr.DIDR0.Set(mask)
}

func (converterUnit) Start() {
	avr.ADCSRA.SetBits(ADC_START_CONVERSION)
}

func (converterUnit) Complete() bool {
	return avr.ADCSRA.HasBits(ADC_INTERRUPT_FLAG)
}

func (converterUnit) Clear() {
	avr.ADCSRA.SetBits(ADC_INTERRUPT_FLAG)
}

func (converterUnit) Result() (lo, hi uint8) {
	// ADCL latches ADCH; it has to be read first.
	lo = avr.ADCL.Get()
	hi = avr.ADCH.Get()
	return lo, hi
}

// transmitterPort drives USART0.
type transmitterPort struct{}

func setupUART() {
	avr.UBRR0H.Set(UART_BAUD_HIGH)
	avr.UBRR0L.Set(UART_BAUD_LOW)

	avr.UCSR0A.Set(UART_TX_COMPLETE)
	avr.UCSR0B.Set(UART_TX_ENABLE)
	avr.UCSR0C.Set(UART_FRAME_8N1)
}

func (transmitterPort) Ready() bool {
	return avr.UCSR0A.HasBits(UART_DATA_REGISTER_IDLE)
}

func (transmitterPort) WriteByte(b byte) error {
	avr.UDR0.Set(b)
	return nil
}
