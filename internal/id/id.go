// Package id provides utilities for generating URL-safe identifiers.
//
// Identifiers are UUIDv4 bytes encoded as base32 (RFC 4648) with no padding.
// The resulting strings are 26 characters long, lowercase, and safe for use
// in URLs and file paths.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New generates a random identifier from crypto entropy.
//
// Kernel handlers must not call New for entities that participate in replay;
// they derive ids from the seed stream via FromBytes instead.
func New() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return encode(value), nil
}

// FromBytes builds an identifier from 16 caller-provided bytes.
//
// The bytes are stamped with the UUIDv4 version and variant bits so ids from
// deterministic streams are indistinguishable from random ones.
func FromBytes(b [16]byte) string {
	b[6] = (b[6] & 0x0F) | 0x40
	b[8] = (b[8] & 0x3F) | 0x80
	value, _ := uuid.FromBytes(b[:])
	return encode(value)
}

func encode(value uuid.UUID) string {
	return strings.ToLower(encoding.EncodeToString(value[:]))
}
