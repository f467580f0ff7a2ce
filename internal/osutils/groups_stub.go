//go:build !linux

package osutils

import "fmt"

// IsUserInGroup is a stub for non-Linux platforms
func IsUserInGroup(name string) (bool, error) {
	return false, fmt.Errorf("group membership check not supported on this platform")
}

// CanWrite is a stub for non-Linux platforms
func CanWrite(path string) bool {
	return false
}
