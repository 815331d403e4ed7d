// Command gen-fixtures builds a test submission from a ground-truth archive.
// Every frame but the last is perturbed (see internal/fixtures) so a grading
// run against the original exercises partial overlaps, misses, a false
// positive and a missing frame.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/bev-grader/internal/archive"
	"github.com/banshee-data/bev-grader/internal/config"
	"github.com/banshee-data/bev-grader/internal/fixtures"
	"github.com/banshee-data/bev-grader/internal/fsutil"
	"github.com/banshee-data/bev-grader/internal/sealed"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("gen-fixtures: %v", err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("gen-fixtures", flag.ContinueOnError)
	fs.SetOutput(stderr)
	gt := fs.String("gt", "", "Ground-truth zip (or sealed .enc with -key)")
	keyPath := fs.String("key", "", "Key file for sealed ground truth")
	out := fs.String("out", "submission.zip", "Output submission zip")
	workRoot := fs.String("work-root", os.TempDir(), "Parent directory for the scratch workspace")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *gt == "" {
		return errors.New("-gt is required")
	}

	ws, err := archive.NewWorkspace(*workRoot, "")
	if err != nil {
		return err
	}
	defer ws.Close()

	srcDir, err := ws.Dir("gt")
	if err != nil {
		return err
	}
	dstDir, err := ws.Dir("generated")
	if err != nil {
		return err
	}

	if err := extract(*gt, *keyPath, srcDir); err != nil {
		return err
	}
	n, err := fixtures.GenerateDir(fsutil.OSFileSystem{}, srcDir, dstDir)
	if err != nil {
		return err
	}
	if err := archive.Pack(dstDir, *out, config.DefaultFrameGlob); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d perturbed frames to %s\n", n, *out)
	return nil
}

func extract(path, keyPath, dir string) error {
	if !sealed.IsSealed(path) {
		_, err := archive.Extract(path, dir)
		return err
	}
	if keyPath == "" {
		return fmt.Errorf("%s is sealed, -key is required", path)
	}
	key, err := sealed.LoadKey(keyPath)
	if err != nil {
		return err
	}
	token, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	plain, err := sealed.Open(token, key)
	if err != nil {
		return err
	}
	_, err = archive.ExtractBytes(plain, dir)
	return err
}
