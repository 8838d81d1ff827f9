package discovery

import (
	"embed"
	"fmt"
	"sort"
)

//go:embed documents/*.json
var embeddedFS embed.FS

// EmbeddedDocuments returns the trimmed Discovery documents shipped with
// this module (Drive v3, Sheets v4, YouTube v3). They cover the method
// surface the convenience packages use; callers working against other
// methods should load full documents from the Discovery service instead.
func EmbeddedDocuments() ([]*Document, error) {
	entries, err := embeddedFS.ReadDir("documents")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded documents: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	docs := make([]*Document, 0, len(entries))
	for _, entry := range entries {
		data, err := embeddedFS.ReadFile("documents/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded document %q: %w", entry.Name(), err)
		}
		doc, err := LoadDocument(data)
		if err != nil {
			return nil, fmt.Errorf("embedded document %q: %w", entry.Name(), err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// EmbeddedCatalog builds a catalog from the embedded documents and the
// default conventions.
func EmbeddedCatalog() (*Catalog, error) {
	docs, err := EmbeddedDocuments()
	if err != nil {
		return nil, err
	}
	return NewCatalog(docs, nil)
}
