//go:build windows

package config

import "os"

func uidString() string {
	if u := os.Getenv("USERNAME"); u != "" {
		return u
	}
	return "default"
}
