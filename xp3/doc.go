// Package xp3 parses and extracts XP3 archives, the container format used
// by the Kirikiri visual-novel engine.
//
// An XP3 archive packages many logical files into one container, optionally
// preceded by a Win32 executable stub. Each logical file is broken into one
// or more segments that are stored raw or zlib-compressed; a file's payload
// may be scattered across the container and interleaved with the payload
// bytes of other files.
//
// The package covers exactly the parser and extractor: locating the
// (possibly embedded) header, decoding the entry index chain, walking the
// chunk hierarchy to reconstruct items and segments, and materializing each
// item on disk. It does not write archives and it does not decrypt
// payloads.
package xp3
