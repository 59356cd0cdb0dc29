// Package driver is the application built around package xp3: it
// enumerates CLI inputs into jobs, extracts them concurrently, and re-probes
// every extracted file as a new job until a round produces nothing new,
// accumulating a human-readable manifest as it goes.
package driver
