package catalog

// Store is the set of catalog operations consumers depend on.
type Store interface {
	UpsertPost(r PostRow) error
	DeletePost(slug string) error
	GetPost(slug string) (*PostRow, error)
	ListPosts(limit, offset int) ([]PostRow, int, error)
	Search(query string, limit int) ([]PostRow, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ Store = (*DB)(nil)
