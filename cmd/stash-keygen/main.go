// Command stash-keygen writes a fresh token signing secret for Circuit
// Stash. The file holds 32 random bytes, base64-encoded, with 0600
// permissions. The secret itself is never printed.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/circuitstash/core/internal/auth"
)

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("stash-keygen: %v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("stash-keygen", flag.ContinueOnError)
	out := fs.String("out", envOr("CIRCUITSTASH_SECRET_FILE", "./data/secrets/jwt.txt"), "path of the secret file to write")
	force := fs.Bool("force", false, "replace an existing secret file (invalidates all sessions)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := auth.WriteSecretFile(*out, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "signing secret written to %s\n", *out)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
