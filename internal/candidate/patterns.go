package candidate

// Placeholder replaces a seed that has no letters or digits left after cleaning.
const Placeholder = "WiFi"

var (
	commonWords = []string{
		"password", "admin", "wifi", "internet", "home", "office",
		"default", "wireless", "network", "secure", "security",
	}

	commonSuffixes = []string{"123", "1234", "12345", "!", "@", "#", "2024", "2025"}

	commonPrefixes = []string{"!", "#", "$", "admin", "wifi", "wireless", "secure"}

	keyboardWalks = []string{
		"qwerty", "asdfgh", "zxcvbn", "1q2w3e", "1qaz2wsx", "qazwsx",
		"qwertyuiop", "asdfghjkl", "zxcvbnm",
	}

	symbols = []byte("!@#$%^&*()")

	leetTable = map[byte]byte{
		'a': '4', 'e': '3', 'i': '1', 'o': '0', 's': '5', 't': '7',
		'A': '4', 'E': '3', 'I': '1', 'O': '0', 'S': '5', 'T': '7',
	}

	// Phase 4 templates: w = letter, d = digit, s = symbol.
	templates = []string{"wwwwddddss", "wwwddssww", "ddwwwwssdd"}
)

const (
	letters      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits       = "0123456789"
	fallbackSet  = digits + "ABCDEFGHIJKLMNOPQRSTUVWXYZ" + "abcdefghijklmnopqrstuvwxyz" + "!@#$%^&*()"
	fallbackSize = 12
)
