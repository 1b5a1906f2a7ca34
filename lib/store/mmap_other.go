// Copyright (C) 2025 The Geocoding Authors.

//go:build windows

package store

import (
	"errors"
	"os"
	"reflect"
	"sync"
	"syscall"
	"unsafe"
)

// mmap on windows uses CreateFileMapping/MapViewOfFile, the way the
// pack's vendored maxminddb-golang does for its own read-only mapped
// database file.
var handleLock sync.Mutex
var handleMap = map[uintptr]syscall.Handle{}

func mmap(fd int, length int) ([]byte, error) {
	h, errno := syscall.CreateFileMapping(syscall.Handle(fd), nil,
		uint32(syscall.PAGE_READONLY), 0, uint32(length), nil)
	if h == 0 {
		return nil, os.NewSyscallError("CreateFileMapping", errno)
	}

	addr, errno := syscall.MapViewOfFile(h, uint32(syscall.FILE_MAP_READ), 0, 0, uintptr(length))
	if addr == 0 {
		return nil, os.NewSyscallError("MapViewOfFile", errno)
	}

	handleLock.Lock()
	handleMap[addr] = h
	handleLock.Unlock()

	var b []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh.Data = addr
	sh.Len = length
	sh.Cap = length
	return b, nil
}

func munmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	addr := sh.Data
	length := uintptr(sh.Len)

	if err := syscall.FlushViewOfFile(addr, length); err != nil {
		return os.NewSyscallError("FlushViewOfFile", err)
	}
	if err := syscall.UnmapViewOfFile(addr); err != nil {
		return err
	}

	handleLock.Lock()
	defer handleLock.Unlock()
	handle, ok := handleMap[addr]
	if !ok {
		return errors.New("store: unknown mapped base address")
	}
	delete(handleMap, addr)

	return os.NewSyscallError("CloseHandle", syscall.CloseHandle(handle))
}
