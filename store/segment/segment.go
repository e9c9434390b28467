// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package segment implements the on-disk framing for sentence store
// segment files: a sequence of length-prefixed records, each followed
// by a newline, capped at MaxEntriesPerSegment records. The binary
// length prefix may itself contain a 0x0A byte, so the file is not
// split into records by line.
//
// Grounded on a raft WAL's segment reader (frame header + offset
// index) generalized to the simpler "whole segment fits in memory"
// model the sentence store needs: segments are small (10k short
// records) so there is no need for an on-disk byte-offset index the
// way a raft log needs one for random access by index.
package segment

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Ext is the file extension used for segment files.
const Ext = "bin"

// MaxEntriesPerSegment is the hard cap on records per segment file.
const MaxEntriesPerSegment = 10_000

// lengthPrefixLen is the size, in bytes, of the big-endian record length
// prefix written ahead of every record.
const lengthPrefixLen = 4

// maxRecordSize guards against corrupt length prefixes causing huge allocations.
const maxRecordSize = 16 * 1024 * 1024

// NewName returns a fresh opaque segment name (without extension).
func NewName() string {
	return uuid.NewString()
}

// Path joins dir and name into a full segment file path.
func Path(dir, name string) string {
	return filepath.Join(dir, name+"."+Ext)
}

// ReadAll decodes every record in the segment file at path, in file order.
func ReadAll(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var records [][]byte
	for {
		rec, err := readRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func readRecord(r *bufio.Reader) ([]byte, error) {
	var lenBuf [lengthPrefixLen]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxRecordSize {
		return nil, fmt.Errorf("segment: record length %d exceeds max %d", n, maxRecordSize)
	}

	record := make([]byte, n)
	if _, err := io.ReadFull(r, record); err != nil {
		return nil, fmt.Errorf("segment: truncated record: %w", err)
	}

	// Consume the trailing newline kept for human readability / resync;
	// the length prefix is what the decoder actually trusts.
	if _, err := r.ReadByte(); err != nil && err != io.EOF {
		return nil, err
	}

	return record, nil
}

// Open opens (creating if necessary) the segment file at path for
// appending, keeping the handle live for the lifetime of an active
// segment the way a raft WAL does.
func Open(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
}

// AppendRecord writes one length-prefixed record, followed by a newline,
// to the given open file handle.
func AppendRecord(f *os.File, record []byte) error {
	var lenBuf [lengthPrefixLen]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(record)))

	buf := make([]byte, 0, lengthPrefixLen+len(record)+1)
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, record...)
	buf = append(buf, '\n')

	_, err := f.Write(buf)
	return err
}

// WriteAll rewrites path to contain exactly records, using a
// write-temp-then-rename so a crash mid-write leaves the original
// segment intact.
func WriteAll(dir, path string, records [][]byte) error {
	tmp, err := os.CreateTemp(dir, ".segment-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	for _, rec := range records {
		if err := AppendRecord(tmp, rec); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
