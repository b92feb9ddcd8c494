// cmd/genhash prints the bcrypt hash of its argument, for manual user inserts.
package main

import (
	"fmt"
	"os"

	"github.com/gonza-rom/jmr-stock-sub000/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <password>")
		os.Exit(2)
	}
	h, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(h)
}
