package lsp

import (
	"strings"
	"sync"

	"go.lsp.dev/protocol"
)

// DocumentManager caches open buffer contents so position-based requests can
// be answered without asking the client.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*Document
}

// Document is a cached open buffer.
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Content string
	Lines   []string
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[protocol.DocumentURI]*Document),
	}
}

// Open stores a newly opened document.
func (dm *DocumentManager) Open(uri protocol.DocumentURI, version int32, content string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.documents[uri] = &Document{
		URI:     uri,
		Version: version,
		Content: content,
		Lines:   splitLines(content),
	}
}

// Update replaces a document's content, creating the entry if didOpen was missed.
func (dm *DocumentManager) Update(uri protocol.DocumentURI, version int32, content string) {
	dm.Open(uri, version, content)
}

// Close drops a document from the cache.
func (dm *DocumentManager) Close(uri protocol.DocumentURI) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	delete(dm.documents, uri)
}

// Get retrieves a cached document.
func (dm *DocumentManager) Get(uri protocol.DocumentURI) (*Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	doc, ok := dm.documents[uri]
	return doc, ok
}

// LineAt returns the line at a position and whether the position is in range.
func (dm *DocumentManager) LineAt(uri protocol.DocumentURI, position protocol.Position) (string, bool) {
	doc, ok := dm.Get(uri)
	if !ok || int(position.Line) >= len(doc.Lines) {
		return "", false
	}
	return doc.Lines[position.Line], true
}

// splitLines splits content into lines, preserving empty ones. CRLF is
// normalized away so column offsets match what clients send.
func splitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
