package util

import "fmt"

// Chunks splits text into fixed-size rune windows. Each window starts
// size-overlap runes after the previous one, so consecutive chunks share
// overlap runes and no cross-boundary context is lost. The last chunk may be
// shorter; input shorter than size yields exactly one chunk equal to the
// input; empty input yields none.
//
// Windows are returned verbatim (no trimming): stripping the first overlap
// runes of every chunk after the first reconstructs the input exactly.
func Chunks(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunkConfig, size, overlap)
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	step := size - overlap
	out := make([]string, 0, len(runes)/step+1)
	for i := 0; ; i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out, nil
}
