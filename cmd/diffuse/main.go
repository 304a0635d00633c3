// Package main provides the Diffuse CLI.
package main

import (
	"fmt"
	"os"

	"github.com/diffuse-ml/diffuse/internal/serialization"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("Diffuse %s\n", version)
	case "inspect":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: diffuse inspect <snapshot.dfsn>")
			os.Exit(2)
		}
		if err := inspect(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "diffuse: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "diffuse: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("Diffuse - denoising policy networks for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version            Show version")
	fmt.Println("  inspect <file>     Print a snapshot's header and tensors")
}

func inspect(path string) error {
	header, stateDict, err := serialization.ReadSnapshot(path)
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot:    %s\n", header.SnapshotID)
	fmt.Printf("Model type:  %s\n", header.ModelType)
	fmt.Printf("Written by:  diffuse %s (format v%d)\n", header.LibraryVersion, header.FormatVersion)
	fmt.Printf("Created at:  %s\n", header.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	for key, value := range header.Metadata {
		fmt.Printf("  %s: %s\n", key, value)
	}

	fmt.Printf("\n%-40s %-10s %-20s %s\n", "TENSOR", "DTYPE", "SHAPE", "BYTES")
	var total int64
	for _, meta := range header.Tensors {
		fmt.Printf("%-40s %-10s %-20v %d\n", meta.Name, meta.DType, meta.Shape, meta.Size)
		total += meta.Size
	}
	fmt.Printf("\n%d tensors, %d bytes\n", len(stateDict), total)
	return nil
}
