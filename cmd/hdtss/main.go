// Command hdtss simulates a threshold key generation locally and derives BIP44 account keys from the resulting shares.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
