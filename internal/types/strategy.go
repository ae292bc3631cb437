package types

// CatalogKind selects how the archive catalog is discovered.
type CatalogKind int

const (
	// CatalogDirectory lists archive files in the local library directory.
	CatalogDirectory CatalogKind = iota
	// CatalogHTML scrapes the server index page.
	CatalogHTML
	// CatalogOPDS reads the server's OPDS catalog feed.
	CatalogOPDS
)

// URLKind selects how a query URL is built.
type URLKind int

const (
	// URLSearchQuery targets /search?content=&pattern=.
	URLSearchQuery URLKind = iota
	// URLArticlePath targets /{archive}/A/{article}.
	URLArticlePath
)

// Strategy is the behaviour selected for a topology and API version pair.
type Strategy struct {
	Catalog CatalogKind
	URL     URLKind
}

type strategyKey struct {
	topology Topology
	version  APIVersion
}

var strategyTable = map[strategyKey]Strategy{
	{TopologyRemote, APIVersion2}: {Catalog: CatalogOPDS, URL: URLArticlePath},
	{TopologyRemote, APIVersion1}: {Catalog: CatalogHTML, URL: URLSearchQuery},
	{TopologyDocker, APIVersion2}: {Catalog: CatalogDirectory, URL: URLSearchQuery},
	{TopologyDocker, APIVersion1}: {Catalog: CatalogDirectory, URL: URLSearchQuery},
	{TopologyNative, APIVersion2}: {Catalog: CatalogDirectory, URL: URLSearchQuery},
	{TopologyNative, APIVersion1}: {Catalog: CatalogDirectory, URL: URLSearchQuery},
}

// ResolveStrategy returns the catalog and URL strategy for the pair.
// Unknown pairs fall back to the local directory and search query behaviour.
func ResolveStrategy(topology Topology, version APIVersion) Strategy {
	if strategy, found := strategyTable[strategyKey{topology: topology, version: version}]; found {
		return strategy
	}
	return Strategy{Catalog: CatalogDirectory, URL: URLSearchQuery}
}
