package snapshots

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// LenUUIDString is the length of the UUID string representation, per
	// https://www.rfc-editor.org/rfc/rfc9562.html#name-uuid-format
	LenUUIDString = 36
)

// ParsePrefixedLogID recovers the log id from a storage path in which it is
// encoded as a uuid with a well known prefix path component. Tenanted
// deployments use the 'tenant/' prefix to identify the log id in the storage
// path. Returns nil if the prefix is absent or what follows it is not a uuid.
func ParsePrefixedLogID(prefix string, storagePath string) LogID {

	at := strings.Index(storagePath, prefix)
	if at == -1 {
		return nil
	}
	rest := storagePath[at+len(prefix):]

	// The uuid may be followed by a slash or the end of the string.
	end := strings.Index(rest, "/")
	if end == -1 {
		end = LenUUIDString
	}
	if end > len(rest) {
		return nil
	}

	logID, err := uuid.Parse(rest[:end])
	if err != nil {
		return nil
	}
	return LogID(logID[:])
}
