//go:build !ios && !android && (amd64 || arm64) && (linux || darwin || freebsd || netbsd || openbsd)

package main

import (
	"fmt"

	"github.com/obinnaokechukwu/ffnative/native"
)

func allocatorStats(a native.Allocator) string {
	p, ok := a.(*native.PageAllocator)
	if !ok {
		return ""
	}
	s := p.Stats()
	return fmt.Sprintf("pages=%d live=%d free=%d blocks=%d", s.Pages, s.LiveCells, s.FreeCells, s.LiveBlocks)
}
