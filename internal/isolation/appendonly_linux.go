//go:build linux

package isolation

import (
	"os"

	"golang.org/x/sys/unix"
)

// FS_APPEND_FL from linux/fs.h. x/sys/unix exports the GETFLAGS and
// SETFLAGS ioctls but not the inode flag bits themselves.
const fsAppendFl = 0x00000020

// setAppendOnly sets the ext-style append-only inode flag. Requires
// CAP_LINUX_IMMUTABLE, so it usually fails for unprivileged users; the
// caller treats that as degraded, not fatal.
func setAppendOnly(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	flags, err := unix.IoctlGetInt(int(file.Fd()), unix.FS_IOC_GETFLAGS)
	if err != nil {
		return false
	}
	if flags&fsAppendFl != 0 {
		return true
	}
	return unix.IoctlSetPointerInt(int(file.Fd()), unix.FS_IOC_SETFLAGS, flags|fsAppendFl) == nil
}

// clearAppendOnly removes the append-only flag. Used when a log must be
// rotated or removed by the owner.
func clearAppendOnly(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	flags, err := unix.IoctlGetInt(int(file.Fd()), unix.FS_IOC_GETFLAGS)
	if err != nil || flags&fsAppendFl == 0 {
		return err == nil
	}
	return unix.IoctlSetPointerInt(int(file.Fd()), unix.FS_IOC_SETFLAGS, flags&^fsAppendFl) == nil
}
