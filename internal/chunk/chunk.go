// Package chunk splits document text into fixed-size windows for indexing.
//
// Chunks are non-overlapping, emitted in left-to-right text order, and
// concatenating them reproduces the input exactly. Chunk ids follow the
// {base}_{index} convention shared by every ingester; index positions are
// significant and must never be reordered.
package chunk

import "fmt"

// DefaultSize is the chunk window, in characters, used by every chunked
// ingestion path.
const DefaultSize = 512

// Split divides text into windows of at most size characters.
// Splitting counts runes, not bytes, so multi-byte characters are never
// cut in half. An empty input yields no chunks. size must be positive;
// a non-positive size panics since it is a programming error, not input.
func Split(text string, size int) []string {
	if size <= 0 {
		panic(fmt.Sprintf("chunk: non-positive size %d", size))
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// IDs builds the chunk id sequence {base}_0 .. {base}_{n-1}.
// Callers must use one base per logical document; re-using a base
// overwrites the previous entries for that document in the store.
func IDs(base string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s_%d", base, i)
	}
	return ids
}
