//go:build darwin

package isolation

import "golang.org/x/sys/unix"

// setAppendOnly sets the user append-only flag, preserving any flags
// already present.
func setAppendOnly(path string) bool {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false
	}
	if st.Flags&unix.UF_APPEND != 0 {
		return true
	}
	return unix.Chflags(path, int(st.Flags)|unix.UF_APPEND) == nil
}

// clearAppendOnly removes the user append-only flag.
func clearAppendOnly(path string) bool {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false
	}
	if st.Flags&unix.UF_APPEND == 0 {
		return true
	}
	return unix.Chflags(path, int(st.Flags)&^unix.UF_APPEND) == nil
}
