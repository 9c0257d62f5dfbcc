package ini

import (
	"bufio"
	"fmt"
	"io"
)

// Encode writes the configuration in canonical form: globals first, then
// each section header followed by its options. Comments and original
// spacing are not preserved, but loading the output yields the same
// sections, keys, values and order.
func (c *Configuration) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for _, o := range c.globals {
		writeOption(bw, o)
	}

	for i, s := range c.sections {
		if i > 0 || len(c.globals) > 0 {
			bw.WriteByte('\n') //nolint:errcheck // surfaced by Flush
		}
		fmt.Fprintf(bw, "[%s]\n", s.name)
		for _, o := range s.options {
			writeOption(bw, o)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	return nil
}

func writeOption(w *bufio.Writer, o Option) {
	fmt.Fprintf(w, "%s=%s\n", o.Key, o.Value)
}
