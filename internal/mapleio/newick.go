package mapleio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"maple/internal/ptree"
)

// WriteNewick serializes tree and writes it to w, one line, matching the
// gotree-free writer in internal/ptree/newick.go (see DESIGN.md for why this
// repo does not pull in gotree's newick writer).
func WriteNewick(tree *ptree.Tree, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(tree.ExportNewick()); err != nil {
		return fmt.Errorf("%w: %s", ErrWritingFile, err)
	}
	if err := bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: %s", ErrWritingFile, err)
	}
	return bw.Flush()
}

// WriteNewickFile is WriteNewick against a file path, closing the file on
// every return path the way camus's output helpers do.
func WriteNewickFile(path string, tree *ptree.Tree) (err error) {
	f, ferr := os.Create(path)
	if ferr != nil {
		return fmt.Errorf("%w: %s", ErrWritingFile, ferr)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %s", ErrWritingFile, cerr)
		}
	}()
	return WriteNewick(tree, f)
}

var branchLengthPattern = regexp.MustCompile(`:([0-9.eE+\-]+)`)

// ReadNewickBranchLengths extracts every branch length from a Newick string
// in left-to-right text order, used by round-trip tests to check that the
// lengths ExportNewick wrote survive re-reading unchanged (spec.md section 8
// property 6). This is a deliberately narrow reader — just enough to recover
// the numbers a round-trip test checks — not a general Newick parser; a full
// parser isn't needed anywhere else in this repo, so the same reasoning that
// kept internal/ptree's writer off of gotree applies here (see DESIGN.md).
func ReadNewickBranchLengths(newick string) ([]float64, error) {
	matches := branchLengthPattern.FindAllStringSubmatch(newick, -1)
	lengths := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed branch length %q", ErrInvalidFormat, m[1])
		}
		lengths = append(lengths, v)
	}
	return lengths, nil
}
