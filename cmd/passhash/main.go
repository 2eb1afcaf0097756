// Command passhash prints the bcrypt hash of a staff passcode for use as
// STAFF_PASSCODE_HASH.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/mone/internal/utils"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: passhash <passcode>")
		os.Exit(2)
	}
	hash, err := utils.HashPassword(os.Args[1], bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "passhash:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
