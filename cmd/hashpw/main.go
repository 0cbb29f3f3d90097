// Command hashpw prints the bcrypt hash to put in ADMIN_PASSWORD_HASH.
//
//	go run ./cmd/hashpw 'my admin password'
package main

import (
	"fmt"
	"os"

	"github.com/iliyamo/teetime-booking/internal/utils"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(2)
	}
	hash, err := utils.HashPassword(os.Args[1], utils.DefaultBcryptCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
