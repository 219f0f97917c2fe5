//go:build !ios && !android && (amd64 || arm64) && !(linux || darwin || freebsd || netbsd || openbsd)

package main

import "github.com/obinnaokechukwu/ffnative/native"

func allocatorStats(native.Allocator) string {
	return ""
}
