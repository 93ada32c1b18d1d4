// Command tiffinfo prints the tag contents of every frame in a TIFF
// file, descended from the teacher's tiff66print.
package main

import (
	"flag"
	"fmt"
	"os"

	tiff "github.com/houstontiff/tiffcore"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tiffinfo <file>")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	doc, err := tiff.Open(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("byte order: %v, big tiff: %v\n", doc.Header.Order, doc.Header.Big)

	for doc.More() {
		frame := doc.Frame()
		ifd, err := doc.Next()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("frame %d (%d tags)\n", frame, ifd.Len())
		for _, tag := range ifd.Tags() {
			v, _ := ifd.Get(tag)
			fmt.Printf("  %s = %v\n", tiff.TagName(tag), v)
		}
	}
	if doc.Looped() {
		fmt.Println("warning: next-IFD chain loops; truncated")
	}
}
