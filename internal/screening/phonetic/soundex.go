// Package phonetic reduces names to coarse sound-alike codes.
package phonetic

// soundexCodes maps A..Z to American Soundex digits. '0' marks vowels (and Y),
// which separate repeated codes; '-' marks H and W, which do not.
const soundexCodes = "0123012-02245501262301-202"

// Soundex returns the four-character American Soundex code of s, or "" when s
// contains no ASCII letter. Characters outside A-Z are ignored, so
// multi-word names encode as one run of letters.
func Soundex(s string) string {
	var (
		out  [4]byte
		n    int
		prev byte
	)
	for i := 0; i < len(s) && n < 4; i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			continue
		}
		code := soundexCodes[c-'A']
		if n == 0 {
			out[0] = c
			n = 1
			prev = code
			continue
		}
		switch code {
		case '-':
			continue
		case '0':
			prev = code
			continue
		}
		if code != prev {
			out[n] = code
			n++
		}
		prev = code
	}
	if n == 0 {
		return ""
	}
	for ; n < 4; n++ {
		out[n] = '0'
	}
	return string(out[:])
}

// Equal reports whether a and b share a non-empty Soundex code.
func Equal(a, b string) bool {
	ca := Soundex(a)
	return ca != "" && ca == Soundex(b)
}
