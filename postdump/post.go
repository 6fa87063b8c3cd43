package postdump

const PostType = "article"

// Post is what we persist per issue, and what the site generator reads.  Field order here is the
// field order in the JSON file; nullable fields are pointers so they come out as null.
type Post struct {
	ID           int            `json:"id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Author       Author         `json:"author"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
	Body         string         `json:"body"`
	Comments     []Comment      `json:"comments"`
	Labels       []string       `json:"labels"`
	Tags         []string       `json:"tags"`
	MainCategory *string        `json:"main_category"`
	PostType     string         `json:"post_type"`
	Media        []Media        `json:"media"`
	Assets       []AssetRef     `json:"assets"`
	Excerpt      string         `json:"excerpt"`
	Draft        bool           `json:"draft"`
	Custom       map[string]any `json:"custom"`
}

type Author struct {
	Login *string `json:"login"`
	ID    *int64  `json:"id"`
	URL   *string `json:"url"`
}

type Comment struct {
	Author    *string `json:"author"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"created_at"`
}

type Media struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type AssetRef struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Asset is one image mirrored for a post.
type Asset struct {
	// original remote location
	Source string

	Filename string

	// where we wrote it locally
	Path string

	// where the site serves it, e.g. /assets/posts/<slug>/<filename>
	URL string

	Size int64
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
