// Package adc drives the shared analog-to-digital conversion unit.
package adc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/itohio/templumi/pkg/sensor"
)

var (
	// ErrStalled is returned when the conversion flag did not assert before ctx was done.
	ErrStalled = errors.New("adc: conversion stalled")
	// ErrInvalidChannel is returned for a channel without a wired input.
	ErrInvalidChannel = errors.New("adc: invalid channel")
)

// Unit is the register-level view of the conversion unit.
type Unit interface {
	// Select routes selector to the converter, enables it and disables the
	// digital input buffers in mask.
	Select(selector, mask uint8)
	// Start triggers a single conversion.
	Start()
	// Complete reports whether the conversion-complete flag is set.
	Complete() bool
	// Clear acknowledges the conversion-complete flag.
	Clear()
	// Result returns the low and high result bytes. The low byte must be read first.
	Result() (lo, hi uint8)
}

// Converter samples channels one at a time through a Unit it owns exclusively.
type Converter struct {
	mu   sync.Mutex
	unit Unit
}

// New creates a Converter over unit.
func New(unit Unit) *Converter {
	return &Converter{unit: unit}
}

// Sample converts a single value from channel ch.
//
// It busy-waits on the completion flag. With a context that is never done a stuck
// conversion blocks forever; otherwise ErrStalled is returned once ctx is done
// and the abandoned conversion is cleared so the unit is idle for the next caller.
func (c *Converter) Sample(ctx context.Context, ch sensor.Channel) (sensor.Raw, error) {
	if !ch.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidChannel, ch)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.unit.Select(ch.Selector(), ch.DigitalDisable())
	c.unit.Start()

	done := ctx.Done()
	for !c.unit.Complete() {
		select {
		case <-done:
			c.unit.Clear()
			return 0, fmt.Errorf("%w on %s: %w", ErrStalled, ch, ctx.Err())
		default:
		}
	}

	lo, hi := c.unit.Result()
	c.unit.Clear()

	return sensor.Raw(uint16(hi)<<8 | uint16(lo)), nil
}
