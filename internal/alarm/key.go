package alarm

import (
	"crypto/sha256"
	"encoding/hex"
)

// keySeparator joins the identity tuple. A non-printable separator keeps
// distinct tuples from colliding when their fields concatenate to the same
// string ("ab"+"c" vs "a"+"bc").
const keySeparator = "\x1f"

// Key derives the deterministic incident fingerprint for an alarm identity.
// Identical (alarmName, region, account) tuples always produce the same key,
// so the value is safe to recompute on retries and to use as a partition key.
func Key(alarmName, region, account string) string {
	h := sha256.New()
	h.Write([]byte(alarmName))
	h.Write([]byte(keySeparator))
	h.Write([]byte(region))
	h.Write([]byte(keySeparator))
	h.Write([]byte(account))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// IncidentKey returns the incident fingerprint for this event.
func (e *Event) IncidentKey() string {
	return Key(e.AlarmName, e.Region, e.Account)
}
