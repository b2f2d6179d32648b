package main

import (
	"os"
)

func main() {
	if err := startNode(); err != nil {
		os.Exit(1)
	}
}
