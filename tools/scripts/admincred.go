// Package main generates the admin credential pair for deployment:
// the Argon2id password hash for SHOP_ADMIN_PASSWORD_HASH and a fresh
// Ed25519 signing key for SHOP_ADMIN_TOKEN_KEY.
package main

import (
	"flag"
	"fmt"
	"os"

	"aidanwoods.dev/go-paseto"

	"stickershop/internal/adminauth"
)

func main() {
	var (
		password = flag.String("password", "", "Admin password to hash (min 8 chars)")
		keyOnly  = flag.Bool("key-only", false, "Only generate a new token signing key")
	)
	flag.Parse()

	if !*keyOnly {
		if *password == "" {
			fmt.Fprintln(os.Stderr, "usage: admincred -password <password> [-key-only]")
			os.Exit(2)
		}
		hash, err := adminauth.HashPassword(*password, adminauth.DefaultArgon2idParams())
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("SHOP_ADMIN_PASSWORD_HASH=%s\n", hash)
	}

	key := paseto.NewV4AsymmetricSecretKey()
	fmt.Printf("SHOP_ADMIN_TOKEN_KEY=%s\n", key.ExportHex())
}
