package textutil

// IsASCIIAlphanumeric reports whether s is non-empty and made only of ASCII
// letters and digits.
func IsASCIIAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlnum(s[i]) {
			return false
		}
	}
	return true
}

// IsSafeKey reports whether s can be used verbatim as a single path segment on
// both the local filesystem and the headset: ASCII letters, digits, '-' and
// '_', and not longer than 128 bytes.
func IsSafeKey(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isAlnum(c) && c != '-' && c != '_' {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
