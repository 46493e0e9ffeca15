/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package media

import (
	"bufio"
	"os"
	"strings"
)

const procMounts = "/proc/self/mounts"

// Mounted reports whether mountPoint currently carries a mounted filesystem.
// This is physical truth straight from the kernel's mount table; the
// controller layers the manual-eject policy on top, never here.
func Mounted(mountPoint string) bool {
	return mountedIn(procMounts, mountPoint)
}

func mountedIn(table, mountPoint string) bool {
	f, err := os.Open(table)
	if err != nil {
		return false
	}
	defer f.Close()

	target := strings.TrimRight(mountPoint, "/")
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if unescapeMount(fields[1]) == target {
			return true
		}
	}
	return false
}

// unescapeMount decodes the octal escapes /proc/self/mounts uses for spaces,
// tabs, newlines and backslashes in mount paths.
func unescapeMount(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if v, ok := octal(s[i+1 : i+4]); ok {
				b.WriteByte(v)
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func octal(s string) (byte, bool) {
	var v int
	for i := 0; i < 3; i++ {
		if s[i] < '0' || s[i] > '7' {
			return 0, false
		}
		v = v*8 + int(s[i]-'0')
	}
	return byte(v), true
}
