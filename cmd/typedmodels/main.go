/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
