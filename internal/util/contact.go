package util

import "regexp"

const NotFound = "Not Found"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[- ]?)?\d{10,12}`)
)

// ExtractContact returns the first email and phone number in text.
func ExtractContact(text string) (email, phone string) {
	email, phone = NotFound, NotFound
	if m := emailPattern.FindString(text); m != "" {
		email = m
	}
	if m := phonePattern.FindString(text); m != "" {
		phone = m
	}
	return email, phone
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
