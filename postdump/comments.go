package postdump

import (
	"context"
	"fmt"

	"github.com/toothbrush/issue-posts/github"
)

type CommentLister interface {
	GetComments(ctx context.Context, repo string, number int) ([]github.Comment, error)
}

// CommentFetcher normalises an issue's comment thread for publishing.
type CommentFetcher struct {
	API CommentLister
}

func (f CommentFetcher) FetchComments(ctx context.Context, repo string, number int) ([]Comment, error) {
	raw, err := f.API.GetComments(ctx, repo, number)
	if err != nil {
		return nil, fmt.Errorf("postdump: couldn't fetch comments for #%d: %w", number, err)
	}

	comments := make([]Comment, 0, len(raw))
	for _, c := range raw {
		comment := Comment{CreatedAt: c.CreatedAt}
		if c.User != nil {
			comment.Author = stringOrNil(c.User.Login)
		}
		if c.Body != nil {
			comment.Body = *c.Body
		}
		comments = append(comments, comment)
	}

	return comments, nil
}
