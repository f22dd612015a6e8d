package outbound

import "context"

type ResolvedContent struct {
	Text     string
	Title    string
	Metadata map[string]string
}

// ContentResolverPort turns a source reference (inline text, file path) into
// the raw text the pipeline starts from.
type ContentResolverPort interface {
	Resolve(ctx context.Context, ref string) (*ResolvedContent, error)
}
