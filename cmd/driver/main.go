// Command driver collects accident records against a DRIVER record schema
// while offline and uploads them when a connection is available.
package main

import "github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/cli"

func main() {
	cli.Execute()
}
