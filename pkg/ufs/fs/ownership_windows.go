//go:build windows

package fs

import "os"

// ownership is unavailable on Windows; fingerprints carry the
// placeholder for owner and group.
func ownership(_ os.FileInfo) (owner, group string) {
	return "", ""
}
