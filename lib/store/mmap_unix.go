// Copyright (C) 2025 The Geocoding Authors.

//go:build !windows

package store

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func mmap(fd int, length int) ([]byte, error) {
	return unix.Mmap(fd, 0, length, syscall.PROT_READ, syscall.MAP_SHARED)
}

func munmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munmap(b)
}
