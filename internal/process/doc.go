// Package process terminates browser process trees that outlive their
// render deadline.
package process
