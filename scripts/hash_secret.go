//go:build ignore

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/your-org/studio-storefront/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/hash_secret.go <relay-secret>")
	}

	secret := os.Args[1]

	hash, err := auth.HashSecret(secret)
	if err != nil {
		log.Fatal("Error generating hash:", err)
	}

	if !auth.VerifySecret(secret, hash) {
		log.Fatal("Hash verification failed")
	}

	fmt.Printf("RELAY_SECRET_HASH=%s\n", hash)
}
