// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package store

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// expireAtPrefix is the meta tag recognized by the TTL scheduler.
const expireAtPrefix = "expire_at:"

// Entry is the persisted record representing one tokenized sentence.
//
// post_processing_text never changes after insert; only deletes occur.
// meta is a free-form key:value string; the only key the store and TTL
// scheduler interpret is expire_at.
type Entry struct {
	ID                 string  `json:"id"`
	OriginalText       *string `json:"original_text,omitempty"`
	PostProcessingText string  `json:"post_processing_text"`
	Lang               string  `json:"lang"`
	Meta               string  `json:"meta"`
	// CreationDate is unix seconds at insert time, not indexed or
	// relied upon by any invariant.
	CreationDate uint64 `json:"creation_date,omitempty"`
}

// NewID generates a fresh random 128-bit textual identifier.
func NewID() string {
	return uuid.New().String()
}

// ExpireAt parses the expire_at tag out of Meta. ok is false if no such
// tag is present; a present but zero expire_at means "never expires".
func (e Entry) ExpireAt() (expireAt uint64, ok bool) {
	idx := strings.Index(e.Meta, expireAtPrefix)
	if idx < 0 {
		return 0, false
	}
	rest := e.Meta[idx+len(expireAtPrefix):]
	if end := strings.IndexByte(rest, ';'); end >= 0 {
		rest = rest[:end]
	}
	v, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Words splits PostProcessingText on whitespace.
func (e Entry) Words() []string {
	if e.PostProcessingText == "" {
		return nil
	}
	return strings.Fields(e.PostProcessingText)
}

func encodeEntry(e Entry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(b []byte) (Entry, error) {
	var e Entry
	err := json.Unmarshal(b, &e)
	return e, err
}
