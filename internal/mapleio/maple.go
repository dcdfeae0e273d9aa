package mapleio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"maple/internal/align"
)

// Sample is one parsed `>name` block: a sample's mutation list against the
// reference, in the already-resolved form internal/align.FromMutations
// expects (spec.md section 4, "consumed from the parser").
type Sample struct {
	Name      string
	Mutations []align.Mutation
}

// ReadMaple parses the MAPLE diff format: a `>reference_name` record holding
// the full reference sequence on the following line, then one `>sample_name`
// record per sample, each followed by zero or more mutation-run lines of the
// form
//
//	CODE POS[ LENGTH]
//
// where POS is the 1-based start of the run (converted to 0-based here) and
// CODE is either an ordinary base (A/C/G/T), 'N' or '-' (gap, treated as N
// per the open question on indels), or an IUPAC ambiguity code. LENGTH
// defaults to 1 when omitted. Positions not covered by any mutation line are
// implicitly reference runs, the same convention align.FromMutations fills
// in. Grounded on original_source/alignment/alignment.cpp's readMaple
// dispatch and camus's internal/prep/io.go line-scanning idiom (bufio.Scanner,
// line-numbered errors, ErrInvalidFormat/ErrInvalidFile sentinels joined with
// %w).
func ReadMaple(r io.Reader) (*align.Reference, []Sample, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)

	line := 0
	nextLine := func() (string, bool) {
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text != "" {
				return text, true
			}
		}
		return "", false
	}

	header, ok := nextLine()
	if !ok {
		return nil, nil, fmt.Errorf("%w: empty MAPLE file", ErrInvalidFile)
	}
	if !strings.HasPrefix(header, ">") {
		return nil, nil, fmt.Errorf("%w: line %d: expected reference header starting with '>', got %q", ErrInvalidFormat, line, header)
	}
	refSeq, ok := nextLine()
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing reference sequence after %q", ErrInvalidFile, header)
	}
	if strings.HasPrefix(refSeq, ">") {
		return nil, nil, fmt.Errorf("%w: line %d: expected reference sequence, got another header %q", ErrInvalidFormat, line, refSeq)
	}

	states := make([]int, len(refSeq))
	for i := 0; i < len(refSeq); i++ {
		state, ok := align.DNA.IndexOf(refSeq[i])
		if !ok {
			return nil, nil, fmt.Errorf("%w: line %d: reference base %q at position %d is not an ordinary state",
				ErrInvalidFormat, line, refSeq[i], i)
		}
		states[i] = state
	}
	ref, err := align.NewReference(align.DNA, states)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidFile, err)
	}

	var samples []Sample
	var cur *Sample
	for {
		text, ok := nextLine()
		if !ok {
			break
		}
		if strings.HasPrefix(text, ">") {
			samples = append(samples, Sample{Name: strings.TrimPrefix(text, ">")})
			cur = &samples[len(samples)-1]
			continue
		}
		if cur == nil {
			return nil, nil, fmt.Errorf("%w: line %d: mutation line %q before any sample header", ErrInvalidFormat, line, text)
		}
		mut, err := parseMutationLine(text, line)
		if err != nil {
			return nil, nil, err
		}
		cur.Mutations = append(cur.Mutations, mut)
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("%w: no samples found", ErrInvalidFile)
	}
	return ref, samples, nil
}

func parseMutationLine(text string, line int) (align.Mutation, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 || len(fields) > 3 {
		return align.Mutation{}, fmt.Errorf("%w: line %d: expected \"CODE POS[ LENGTH]\", got %q", ErrInvalidFormat, line, text)
	}
	code := fields[0]
	if len(code) != 1 {
		return align.Mutation{}, fmt.Errorf("%w: line %d: mutation code must be a single character, got %q", ErrInvalidFormat, line, code)
	}
	pos1, err := strconv.Atoi(fields[1])
	if err != nil || pos1 < 1 {
		return align.Mutation{}, fmt.Errorf("%w: line %d: invalid position %q", ErrInvalidFormat, line, fields[1])
	}
	length := 1
	if len(fields) == 3 {
		length, err = strconv.Atoi(fields[2])
		if err != nil || length < 1 {
			return align.Mutation{}, fmt.Errorf("%w: line %d: invalid length %q", ErrInvalidFormat, line, fields[2])
		}
	}
	position := pos1 - 1

	b := code[0]
	switch {
	case align.DNA.IsGap(b):
		return align.Mutation{Type: align.TypeN, Position: position, Length: length}, nil
	case b == 'N' || b == 'n':
		return align.Mutation{Type: align.TypeN, Position: position, Length: length}, nil
	}
	if state, ok := align.DNA.IndexOf(b); ok {
		return align.Mutation{Type: align.TypeState, State: state, Position: position, Length: length}, nil
	}
	if lh, ok := align.DNA.Ambiguous(b); ok {
		return align.Mutation{Type: align.TypeOther, Likelihood: lh, Position: position, Length: length}, nil
	}
	return align.Mutation{}, fmt.Errorf("%w: line %d: unrecognized mutation code %q", ErrInvalidFormat, line, code)
}
