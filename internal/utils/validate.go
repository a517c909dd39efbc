package utils

import "regexp"

// indianPhone matches 10-digit Indian mobile numbers, optionally prefixed
// with 91 or +91. The first significant digit must be 6-9.
var indianPhone = regexp.MustCompile(`^(\+91|91)?[6-9]\d{9}$`)

// ValidPhone reports whether s is an acceptable phone number.
func ValidPhone(s string) bool {
	return indianPhone.MatchString(s)
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail does a structural sanity check on an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}
