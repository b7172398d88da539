package main

import (
	"os"
	sys "os"
)

func helper() {
	os.Exit(2)
}

func main() {
	helper()
	defer func() {
		os.Exit(1) // want "avoid using os.Exit in main.main"
	}()
	sys.Exit(3) // want "avoid using os.Exit in main.main"
	os.Exit(0)  // want "avoid using os.Exit in main.main"
}
