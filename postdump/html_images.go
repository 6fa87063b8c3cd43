package postdump

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// GitHub's editor inserts pasted images as raw HTML, e.g.
// <img width="300" alt="x" src="https://github.com/user-attachments/assets/...">
var htmlImage = regexp.MustCompile(`(?i)<img\s[^>]*>`)

// findHTMLImages returns a reference for every inline <img> tag with an absolute http(s) src.  The
// reference spans the whole tag, and its replacement is the tag converted to a Markdown image, so a
// tag only changes once its image has been mirrored.  Tags with no usable src are skipped.
func findHTMLImages(body string) ([]imageRef, error) {
	locs := htmlImage.FindAllStringIndex(body, -1)
	if len(locs) == 0 {
		return nil, nil
	}

	converter := md.NewConverter("", true, nil)

	refs := []imageRef{}
	for _, loc := range locs {
		tag := body[loc[0]:loc[1]]
		markdown, err := converter.ConvertString(tag)
		if err != nil {
			return nil, fmt.Errorf("postdump: couldn't convert %q to Markdown: %w", tag, err)
		}
		markdown = strings.TrimSpace(markdown)

		m := markdownImage.FindStringSubmatchIndex(markdown)
		if m == nil {
			continue
		}
		refs = append(refs, imageRef{
			URL:    markdown[m[2]:m[3]],
			Start:  loc[0],
			End:    loc[1],
			Prefix: markdown[m[0]:m[2]],
			Suffix: markdown[m[3]:m[1]],
		})
	}

	return refs, nil
}
