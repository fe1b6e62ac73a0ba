package uid

import (
	"strconv"
	"sync"

	"github.com/teris-io/shortid"
)

var (
	sidOnce sync.Once
	sid     *shortid.Shortid
)

// uuidABC mirrors the teacher's custom shortid alphabet.
const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

func initShortID() {
	sid, _ = shortid.New(4 /*worker*/, uuidABC, uint64(MachineID()))
}

// ShortID returns a short, URL-safe correlation ID for places where a full
// Snowflake ID would be overkill.
func ShortID() string {
	sidOnce.Do(initShortID)
	s, err := sid.Generate()
	if err != nil {
		// extremely unlikely (worker-ID exhaustion); fall back to a
		// hash-derived ID rather than propagating an error from a
		// correlation-ID helper callers don't expect to fail.
		return strconv.FormatUint(MachineID32(), 36)
	}
	return s
}

// MachineID32 returns MachineID widened to a uint64, for use as a fallback
// hash input.
func MachineID32() uint64 { return uint64(MachineID()) }
