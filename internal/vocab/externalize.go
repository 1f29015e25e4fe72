package vocab

import (
	"bufio"
	"io"
)

// ExternalizeLiteralsFromTextFile streams a plain text file (one literal per
// line) through the same sort/dedup step as BuildFromWords, merging the lines
// with the existing external words and re-sorting the whole external store;
// external ids are offset by the internal word count. It does not re-run the
// externalization policy: every
// line is treated as externalized regardless of SetExternalizePrefixes, to
// match callers that already know the input is an external-literals file.
func (v *Vocabulary) ExternalizeLiteralsFromTextFile(r io.Reader) error {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	combined := append(append([]string(nil), v.external...), words...)
	v.external = sortDedup(combined, v.comparator)
	return nil
}
