package fallback

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// ExtractContact picks the course contact address from a policy document:
// a coordinator address first, then admin, then info/course addresses, then
// the first address found. Returns "" when the document has none.
func ExtractContact(src []byte) string {
	found := emailPattern.FindAll(src, -1)
	if len(found) == 0 {
		return ""
	}
	emails := make([]string, 0, len(found))
	for _, e := range found {
		emails = append(emails, strings.TrimRight(string(e), "."))
	}

	preferences := []func(local string) bool{
		func(local string) bool { return strings.Contains(local, "coordinator") },
		func(local string) bool { return strings.Contains(local, "admin") },
		func(local string) bool { return strings.HasPrefix(local, "info") || strings.Contains(local, "course") },
	}
	for _, prefer := range preferences {
		for _, e := range emails {
			local := strings.ToLower(e[:strings.Index(e, "@")])
			if prefer(local) {
				return e
			}
		}
	}
	return emails[0]
}
