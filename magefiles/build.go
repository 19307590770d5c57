//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "driver"
	binaryDir  = "bin"
	cmdDir     = "./cmd/driver"
	modulePath = "github.com/WorldBank-Transport/DRIVER-Android-sub000"
)

// version returns the build version: $DRIVER_VERSION, else the latest git
// tag, else "dev".
func version() string {
	if v := os.Getenv("DRIVER_VERSION"); v != "" {
		return v
	}
	if out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && out != "" {
		return strings.TrimPrefix(out, "v")
	}
	return "dev"
}

func ldflags() string {
	return "-X " + modulePath + "/internal/cli.Version=" + version()
}

// Build compiles the driver binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(),
		"-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	if err := os.RemoveAll(coverFile); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
