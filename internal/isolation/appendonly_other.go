//go:build !linux && !darwin

package isolation

// setAppendOnly reports false on platforms without an append-only file
// attribute; lockdown continues with permission bits only.
func setAppendOnly(string) bool { return false }

func clearAppendOnly(string) bool { return false }
