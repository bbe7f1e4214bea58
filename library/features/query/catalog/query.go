package catalog

const (
	queryType    = "Catalog"
	snapshotType = "Catalog"
)

// Query asks for the whole catalog. Lookups and searches run on the result.
type Query struct{}

func BuildQuery() Query {
	return Query{}
}

func (q Query) QueryType() string {
	return queryType
}

func (q Query) SnapshotType() string {
	return snapshotType
}
