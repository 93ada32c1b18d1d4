// Command tiffrepack decodes every frame of a TIFF file and re-encodes
// it through the appending writer, descended from the teacher's
// tiff66repack. Each frame is emitted as a standalone mini page (its
// own local header plus IFD) and handed to the appending writer, which
// relocates the page's offset-bearing tags into their final position in
// the output file — exercising the exact machinery a multi-page encoder
// needs.
package main

import (
	"flag"
	"fmt"
	"os"

	tiff "github.com/houstontiff/tiffcore"
)

func main() {
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: tiffrepack <in> <out>")
		os.Exit(2)
	}

	in, err := os.Open(flag.Arg(0))
	if err != nil {
		fatal(err)
	}
	defer in.Close()

	doc, err := tiff.Open(in)
	if err != nil {
		fatal(err)
	}

	os.Remove(flag.Arg(1))
	out, err := tiff.OpenAppendingWriter(flag.Arg(1), true)
	if err != nil {
		fatal(err)
	}

	headerSize := uint64(8)
	if doc.Header.Big {
		headerSize = 16
	}

	frames := 0
	for doc.More() {
		ifd, err := doc.Next()
		if err != nil {
			fatal(err)
		}

		ifdBytes, err := ifd.ToBytes(headerSize)
		if err != nil {
			fatal(err)
		}
		pageHeader := tiff.PutHeader(tiff.Header{Order: doc.Header.Order, Big: doc.Header.Big, FirstIFD: headerSize})

		if _, err := out.Write(pageHeader); err != nil {
			fatal(err)
		}
		if _, err := out.Write(ifdBytes); err != nil {
			fatal(err)
		}
		frames++

		if doc.More() {
			if err := out.NewFrame(); err != nil {
				fatal(err)
			}
		}
	}

	if err := out.Close(); err != nil {
		fatal(err)
	}
	fmt.Printf("repacked %d frame(s) into %s\n", frames, flag.Arg(1))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
