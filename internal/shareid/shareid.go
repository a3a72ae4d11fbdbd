// Package shareid mints the opaque ids the share server hands out for
// uploaded games and bundles.
//
// An id is a UUIDv7 written as 26 characters of Crockford base32, so ids sort
// by upload time.
package shareid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/coder/quartz"
)

const (
	alphabet = "0123456789abcdefghjkmnpqrstvwxyz"
	Length   = 26
)

// RandSource lets tests make the random part of an id deterministic.
type RandSource interface {
	Intn(n int) int
}

// Generator mints ids from a clock and a random source.
type Generator struct {
	clock quartz.Clock
	rand  RandSource
}

// NewGenerator returns a Generator. A nil source uses crypto/rand.
func NewGenerator(clock quartz.Clock, source RandSource) *Generator {
	return &Generator{clock: clock, rand: source}
}

// Generate returns a new id.
func (g *Generator) Generate() string {
	var uuid [16]byte

	ms := uint64(g.clock.Now().UnixMilli())
	for i := 0; i < 6; i++ {
		uuid[i] = byte(ms >> (40 - 8*i))
	}

	if g.rand != nil {
		for i := 6; i < 16; i++ {
			uuid[i] = byte(g.rand.Intn(256))
		}
	} else if _, err := rand.Read(uuid[6:]); err != nil {
		panic("shareid: crypto/rand failed: " + err.Error())
	}

	uuid[6] = uuid[6]&0x0f | 0x70 // version 7
	uuid[8] = uuid[8]&0x3f | 0x80 // RFC 4122 variant
	return encode(uuid)
}

// encode writes the 128 bits as 26 base32 digits; the leading digit carries
// only the top three bits.
func encode(uuid [16]byte) string {
	hi := binary.BigEndian.Uint64(uuid[:8])
	lo := binary.BigEndian.Uint64(uuid[8:])
	out := make([]byte, Length)
	for i := Length - 1; i >= 0; i-- {
		out[i] = alphabet[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out)
}

// Validate checks that id could have come from a Generator.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("share id must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("share id first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
