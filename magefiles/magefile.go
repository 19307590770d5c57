//go:build mage

// Package main provides build targets for the driver project using Mage.
//
// Usage:
//
//	mage build          Compile the driver binary to bin/
//	mage install        Install driver to GOPATH/bin
//	mage clean          Remove build artifacts
//	mage test:all       Run all tests
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Run all tests and write coverage.out
//	mage lint           Run golangci-lint
//	mage vet            Run go vet
//	mage stats          Print Go LOC and documentation word counts
package main
