// Package osutils holds small host helpers shared by the daemon and the client.
package osutils

import (
	"os"
	"strconv"
	"strings"
)

// UinputPath is the kernel's user-space input device node.
const UinputPath = "/dev/uinput"

// InputGroup owns UinputPath on most distributions.
const InputGroup = "input"

// ExpandUID replaces every "$id" in path with the effective user id.
func ExpandUID(path string) string {
	return strings.ReplaceAll(path, "$id", strconv.Itoa(os.Geteuid()))
}

// IsAdmin reports whether the process runs as root
func IsAdmin() bool {
	return os.Geteuid() == 0
}
