// Package ble bridges a Bluetooth LE radio stack into the firmloop main loop.
//
// The stack delivers events on its own goroutines. Bridge copies each one
// into a preallocated slot of a bounded eventpool.Exchange, wakes the main
// loop, and dispatches the queued events to the registered handlers from its
// Loop. When every slot is in use the event is dropped and counted; the
// producer never blocks.
package ble
