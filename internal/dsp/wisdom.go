package dsp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadWisdom reads a wisdom file (spec §6 format: one
// "<operation-name> <implementation-name>" directive per line, leading
// whitespace ignored, "#" to end-of-line a comment) and re-ranks k's
// dispatchers accordingly. Unknown operation or implementation names are
// silently ignored, per spec, for forward compatibility. A missing or
// unreadable file makes LoadWisdom return the open error and leaves the
// ranking unchanged; the caller decides whether that is fatal
// (cmd/modescore logs it as a warning and continues).
func LoadWisdom(k *Kernels, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return loadWisdomFrom(k, f)
}

func loadWisdomFrom(k *Kernels, r io.Reader) error {
	prefs := map[string][]string{}
	order := []string{}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		op, impl := fields[0], fields[1]
		if _, seen := prefs[op]; !seen {
			order = append(order, op)
		}
		prefs[op] = append(prefs[op], impl)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	byName := make(map[string]namedDispatcher, len(k.dispatchers()))
	for _, d := range k.dispatchers() {
		byName[d.OperationName()] = d
	}
	for _, op := range order {
		d, ok := byName[op]
		if !ok {
			continue
		}
		d.Reorder(prefs[op])
	}
	return nil
}

// WriteWisdom dumps k's current per-operation implementation order to w, in
// the same format LoadWisdom reads. Used by operators to snapshot a tuned
// ranking from one host to another, and by tests to prove the round trip is
// idempotent (spec §8 property 7).
func WriteWisdom(k *Kernels, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, d := range k.dispatchers() {
		for _, name := range d.Names() {
			if _, err := fmt.Fprintf(bw, "%s %s\n", d.OperationName(), name); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteWisdomFile is the file-path convenience wrapper around WriteWisdom.
func WriteWisdomFile(k *Kernels, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteWisdom(k, f)
}
