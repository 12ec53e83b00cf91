// Package main generates a bcrypt hash for the admin console password.
//
// Usage:
//
//	./hash-admin-password                # Prompt-free: reads ADMIN_PASSWORD env var
//	./hash-admin-password --password=s3cret
//
// The resulting hash goes into the ADMIN_PASSWORD_HASH environment variable,
// which takes precedence over the plain ADMIN_PASSWORD.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	password := flag.String("password", "", "password to hash (defaults to ADMIN_PASSWORD env var)")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	pw := *password
	if pw == "" {
		pw = os.Getenv("ADMIN_PASSWORD")
	}
	if pw == "" {
		log.Fatal("No password given: use --password or set ADMIN_PASSWORD")
	}
	if len(pw) < 8 {
		log.Fatal("Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pw), *cost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
}
