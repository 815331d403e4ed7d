// Command seal-gt encrypts a ground-truth zip with a Fernet key so it can be
// shipped alongside the grader, and generates new keys.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/bev-grader/internal/sealed"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("seal-gt: %v", err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seal-gt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	genKey := fs.Bool("genkey", false, "Generate a new key and write it to -key (or stdout)")
	keyPath := fs.String("key", "", "Key file")
	in := fs.String("in", "", "Ground-truth zip to seal")
	out := fs.String("out", "", "Sealed output (default: <in>"+sealed.Ext+")")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *genKey {
		return generateKey(*keyPath, stdout)
	}

	if *keyPath == "" || *in == "" {
		return errors.New("-key and -in are required")
	}
	dest := *out
	if dest == "" {
		dest = *in + sealed.Ext
	}
	if !sealed.IsSealed(dest) {
		return fmt.Errorf("output %s must end in %s so the grader recognises it", dest, sealed.Ext)
	}

	key, err := sealed.LoadKey(*keyPath)
	if err != nil {
		return err
	}
	plain, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read %s: %w", *in, err)
	}
	token, err := sealed.Seal(plain, key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, token, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	fmt.Fprintf(stdout, "sealed %s -> %s (%d bytes)\n", *in, dest, len(token))
	return nil
}

func generateKey(path string, stdout io.Writer) error {
	key, err := sealed.GenerateKey()
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(stdout, key)
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing key %s", path)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	fmt.Fprintf(stdout, "wrote key to %s\n", path)
	return nil
}
