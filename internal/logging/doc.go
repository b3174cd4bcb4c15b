// Package logging provides leveled logging for the photo gallery.
//
// The level is read from the DEBUG and LOG_LEVEL environment variables on
// first use. Debug messages are suppressed unless DEBUG is truthy or
// LOG_LEVEL=debug.
package logging
