//go:build !windows

package config

import (
	"os"
	"strconv"
)

func uidString() string {
	return strconv.Itoa(os.Getuid())
}
