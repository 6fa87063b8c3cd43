package postdump

import (
	"regexp"
	"strconv"
	"strings"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify maps any text to a lower-case, hyphen-separated [a-z0-9-] fragment.  It never returns
// the empty string: text with nothing usable in it becomes "post".
func Slugify(text string) string {
	str := strings.TrimSpace(strings.ToLower(text))
	str = nonSlugRun.ReplaceAllString(str, "-")
	str = strings.Trim(str, "-")

	if str == "" {
		return "post"
	}
	return str
}

// PostSlug is the slug a post is published under.  The issue number is appended so that two titles
// that slugify identically still land in different files.
func PostSlug(title string, id int) string {
	return Slugify(title) + "-" + strconv.Itoa(id)
}
