// Command unpack scans one or more opaque input files for known binary
// artifacts — compressed streams, archive containers, firmware images,
// filesystem superblocks — and extracts what it finds, optionally
// recursing into the extracted content.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/nwestfall/retools/internal/unpacker"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "unpack:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ContinueOnError)

	destination := fs.String("d", "unpacked", "output path for a single input file")
	carve := fs.Bool("c", false, "always carve every match to a carved_* file, even when it will also be extracted")
	noExtract := fs.Bool("n", false, "do not run any format's extractor; implies scanning and carving only")
	recurse := fs.Bool("r", false, "recurse into successfully extracted content")
	fs.BoolVar(noExtract, "noextract", false, "same as -n")
	fs.BoolVar(recurse, "recurse", false, "same as -r")
	recurseMultifiles := fs.Bool("recurse-multifiles", false, "treat a directory argument as many independent input files")
	archiveLimit := fs.Int64("l", 0, "cap bytes read from the input when piping to an external decompressor (0 = unlimited)")
	verbose := fs.Int("v", 0, "verbosity level (0-3, repeatable granularity mapped onto slog levels)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: unpack [flags] <file-or-directory>...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no input files given")
	}
	if *recurse && *noExtract {
		return fmt.Errorf("-r/--recurse and -n/--noextract are mutually exclusive")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: verbosityLevel(*verbose),
	}))

	u := unpacker.New(unpacker.Options{
		Destination:       *destination,
		Carve:             *carve,
		NoExtract:         *noExtract,
		Recurse:           *recurse,
		RecurseMultifiles: *recurseMultifiles,
		ArchiveLimit:      *archiveLimit,
		Logger:            logger,
	})

	var firstErr error
	for _, path := range fs.Args() {
		if err := u.UnpackAll(path); err != nil {
			logger.Error("unpack failed", "path", path, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func verbosityLevel(v int) slog.Level {
	switch {
	case v >= 3:
		return slog.LevelDebug
	case v >= 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}
