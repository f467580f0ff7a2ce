//go:build linux

package osutils

import (
	"fmt"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// IsUserInGroup reports whether the current process carries the named
// group in its supplementary group list.
//
// A user freshly added with usermod only gets the group after logging in
// again, so this reflects what the running session can actually open.
func IsUserInGroup(name string) (bool, error) {
	group, err := user.LookupGroup(name)
	if err != nil {
		return false, fmt.Errorf("lookup group %s: %w", name, err)
	}
	gid, err := strconv.Atoi(group.Gid)
	if err != nil {
		return false, fmt.Errorf("group %s has non-numeric gid %q", name, group.Gid)
	}

	if unix.Getegid() == gid {
		return true, nil
	}
	groups, err := unix.Getgroups()
	if err != nil {
		return false, fmt.Errorf("getgroups: %w", err)
	}
	for _, g := range groups {
		if g == gid {
			return true, nil
		}
	}
	return false, nil
}

// CanWrite reports whether path is writable by this process.
func CanWrite(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
