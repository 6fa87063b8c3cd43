package postdump

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"
	"github.com/flytam/filenamify"
	"golang.org/x/exp/slices"
)

// Markdown images with an absolute http(s) target: ![alt](URL).  The URL stops at the first ), "
// or ', which also keeps titles like ![a](u "t") from matching.
var markdownImage = regexp.MustCompile(`!\[[^\]]*\]\((https?:[^)"']+)\)`)

const fallbackImageExt = ".png"

// imageRef is one image reference found in a body.  Start and End delimit the text that gets
// replaced once URL is mirrored: the URL itself for Markdown images, the whole tag for <img>.  The
// replacement is Prefix + local URL + Suffix.
type imageRef struct {
	URL        string
	Start, End int

	Prefix, Suffix string
}

// findImages returns every Markdown image reference in body, left to right.  body is not modified.
func findImages(body string) []imageRef {
	refs := []imageRef{}
	for _, m := range markdownImage.FindAllStringSubmatchIndex(body, -1) {
		refs = append(refs, imageRef{
			URL:   body[m[2]:m[3]],
			Start: m[2],
			End:   m[3],
		})
	}
	return refs
}

// mergeRefs interleaves two sets of references by position, dropping any that overlap an earlier one.
func mergeRefs(a, b []imageRef) []imageRef {
	all := append(append([]imageRef{}, a...), b...)
	slices.SortStableFunc(all, func(x, y imageRef) int {
		return x.Start - y.Start
	})

	merged := []imageRef{}
	end := 0
	for _, r := range all {
		if r.Start < end {
			continue
		}
		merged = append(merged, r)
		end = r.End
	}
	return merged
}

// distinctURLs keeps the first occurrence of each URL, in order of appearance.
func distinctURLs(refs []imageRef) []string {
	urls := []string{}
	for _, r := range refs {
		if !slices.Contains(urls, r.URL) {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

// rewriteImages builds a new body in one left-to-right pass over the original, substituting each
// reference whose URL was published.  Everything else, including references to images that failed,
// is copied through untouched.  refs must be sorted and non-overlapping, as findImages and mergeRefs
// return them.
func rewriteImages(body string, refs []imageRef, published map[string]string) string {
	var b strings.Builder
	last := 0
	for _, r := range refs {
		local, ok := published[r.URL]
		if !ok || r.Start < last {
			continue
		}
		b.WriteString(body[last:r.Start])
		b.WriteString(r.Prefix + local + r.Suffix)
		last = r.End
	}
	b.WriteString(body[last:])
	return b.String()
}

// assetFilename derives a local filename from the last segment of the URL's path.  When the path
// has no usable segment the name is derived from a hash of the URL, so re-runs agree on it.
func assetFilename(rawURL string) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		normalised := purell.NormalizeURL(u, purell.FlagsSafe|purell.FlagRemoveDotSegments)
		if n, err := url.Parse(normalised); err == nil {
			base = path.Base(n.EscapedPath())
		}
	}

	if base != "" && base != "/" && base != "." && base != ".." {
		safe, err := filenamify.Filenamify(base, filenamify.Options{MaxLength: 255})
		if err == nil && safe != "" && safe != "." && safe != ".." {
			return safe
		}
	}

	sum := sha256.Sum256([]byte(rawURL))
	return "image-" + hex.EncodeToString(sum[:])[:12] + fallbackImageExt
}

// uniqueFilename returns name, or name with -2, -3, ... before the extension if it's taken.
func uniqueFilename(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}
