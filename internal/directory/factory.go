package directory

// Mode selects which Searcher backs a Directory.
type Mode string

const (
	// ModeDemo serves providers from the bundled demo dataset.
	ModeDemo Mode = "demo"
	// ModeRemote queries a real places backend, cached with a demo fallback.
	ModeRemote Mode = "remote"
)

// New returns the Directory configured for mode. client may be nil when
// mode is ModeDemo.
func New(mode Mode, client PlacesClient) *Directory {
	if mode == ModeRemote && client != nil {
		return newDirectory(NewRemoteSearcher(client))
	}
	return newDirectory(NewDemoSearcher())
}

func newDirectory(s Searcher) *Directory {
	return &Directory{searcher: s, cache: NewIDCache()}
}
