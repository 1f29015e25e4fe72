package vocab

import "github.com/aleksaelezovic/qlgo/pkg/errs"

// Compress encodes word as a one-byte codeword (indexing the configured
// prefix codebook) followed by the unmatched suffix, using the longest
// matching declared prefix. Words with no matching prefix are returned
// unchanged with a leading sentinel byte 0xFF, which is never a valid
// codebook index (codebooks are capped at 128 entries).
func (v *Vocabulary) Compress(word string) []byte {
	bestIdx := -1
	bestLen := -1
	for i, p := range v.prefixCodebook {
		if len(p) > bestLen && len(word) >= len(p) && word[:len(p)] == p {
			bestIdx = i
			bestLen = len(p)
		}
	}
	if bestIdx == -1 {
		out := make([]byte, 0, len(word)+1)
		out = append(out, 0xFF)
		return append(out, word...)
	}
	out := make([]byte, 0, len(word)-bestLen+1)
	out = append(out, byte(bestIdx))
	return append(out, word[bestLen:]...)
}

// Expand decodes a byte sequence produced by Compress back into the
// original word (§8 #7, "Prefix round-trip").
func (v *Vocabulary) Expand(encoded []byte) (string, error) {
	if len(encoded) == 0 {
		return "", errs.New(errs.CodeVocabCheckFailed, "cannot expand an empty compressed word")
	}
	code, suffix := encoded[0], encoded[1:]
	if code == 0xFF {
		return string(suffix), nil
	}
	if int(code) >= len(v.prefixCodebook) {
		return "", errs.New(errs.CodeVocabCheckFailed,
			"compressed word references a codebook entry out of range",
			errs.Field("code", code), errs.Field("codebook_size", len(v.prefixCodebook)))
	}
	return v.prefixCodebook[code] + string(suffix), nil
}
