package hierarchy

import (
	"strconv"
	"strings"
)

// FormatString renders a view as "[id:depth, id:depth, ...]" for diagnostics
// and test comparison. An empty view renders as "[]".
func FormatString(h Hierarchy) string {
	var sb strings.Builder

	sb.WriteByte('[')
	for i := uint64(0); i < h.Size(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatUint(h.NodeID(i), 10))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(h.Depth(i)), 10))
	}
	sb.WriteByte(']')

	return sb.String()
}
