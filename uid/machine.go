package uid

import (
	"os"

	"github.com/OneOfOne/xxhash"
)

// MachineID derives a 12-bit machine field for Snowflake generation from the
// process hostname, so that independently started instances settle on
// different (likely-distinct) machine fields without any coordination.
// Grounded on the teacher's HashK8sProxyID (xxhash.Checksum64S over the
// node name), narrowed from a 13-char string ID to a 12-bit integer field.
func MachineID() uint16 {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	digest := xxhash.Checksum64S([]byte(host), mlcg32)
	return uint16(digest & machineMask)
}

// mlcg32 seeds the xxhash checksum, matching the teacher's use of a fixed
// seed constant so hashing is deterministic across restarts on the same host.
const mlcg32 = 0x2c9e3ca9
