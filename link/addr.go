package link

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ardnew/softkb/pkg"
)

// AddrLen is the length of a peer address.
const AddrLen = 6

// Addr is a 6-byte link-layer peer address, written as colon-separated
// hex octets.
type Addr [AddrLen]byte

// Broadcast addresses every peer.
var Broadcast = Addr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ParseAddr parses an address such as "48:27:e2:0d:73:70". Dashes are
// accepted in place of colons.
func ParseAddr(s string) (Addr, error) {
	var a Addr
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != AddrLen {
		return a, fmt.Errorf("%w: address %q", pkg.ErrInvalidParameter, s)
	}
	for n, p := range parts {
		if len(p) != 2 {
			return a, fmt.Errorf("%w: address %q", pkg.ErrInvalidParameter, s)
		}
		if _, err := hex.Decode(a[n:n+1], []byte(p)); err != nil {
			return a, fmt.Errorf("%w: address %q", pkg.ErrInvalidParameter, s)
		}
	}
	return a, nil
}

// MustParseAddr is like ParseAddr but panics on error.
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the address as lower-case colon-separated hex.
func (a Addr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// IsBroadcast reports whether a is the broadcast address.
func (a Addr) IsBroadcast() bool {
	return a == Broadcast
}

// MarshalText implements encoding.TextMarshaler.
func (a Addr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Addr) UnmarshalText(text []byte) error {
	parsed, err := ParseAddr(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
