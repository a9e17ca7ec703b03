package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
)

// Prints a fresh base64 field encryption key, or writes it to the given
// path with owner-only permissions for FIELD_ENCRYPTION_KEY_FILE.
//
//	go run scripts/generate_encryption_key.go [path]
func main() {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)

	if len(os.Args) < 2 {
		fmt.Println(encoded)
		return
	}

	path := os.Args[1]
	if _, err := os.Stat(path); err == nil {
		log.Fatalf("Refusing to overwrite existing key file %s", path)
	}
	if err := os.WriteFile(path, []byte(encoded+"\n"), 0o600); err != nil {
		log.Fatalf("Failed to write key file: %v", err)
	}
	fmt.Printf("Wrote encryption key to %s\n", path)
}
