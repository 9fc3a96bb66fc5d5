package identity

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// PseudoMAC derives a stable locally administered unicast MAC from hostname.
// The same hostname always yields the same address, so the backend can
// correlate an agent across restarts without persisted state.
func PseudoMAC(hostname string) string {
	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64String(hostname))

	// lower 48 bits
	mac := sum[2:8]
	mac[0] = (mac[0] | 0x02) &^ 0x01

	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		mac[0], mac[1], mac[2], mac[3], mac[4], mac[5])
}
