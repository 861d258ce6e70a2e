package upload

import "slices"

// Gallery is a set of uploaded image URLs sharing one capacity limit. Each
// slot is an independent task; the gallery only tracks the results.
type Gallery struct {
	maxFiles int
	urls     []string
}

// NewGallery creates a gallery holding at most maxFiles images.
func NewGallery(maxFiles int) *Gallery {
	return &Gallery{maxFiles: maxFiles}
}

// Add appends a URL when capacity allows and reports whether it was added.
func (g *Gallery) Add(url string) bool {
	if len(g.urls) >= g.maxFiles {
		return false
	}
	g.urls = append(g.urls, url)
	return true
}

// Remove drops a URL from the gallery. Idempotent: removing an absent URL is
// a no-op. The remote object is never deleted.
func (g *Gallery) Remove(url string) bool {
	i := slices.Index(g.urls, url)
	if i < 0 {
		return false
	}
	g.urls = slices.Delete(g.urls, i, i+1)
	return true
}

// CapacityRemaining is how many more images the gallery accepts.
func (g *Gallery) CapacityRemaining() int {
	return g.maxFiles - len(g.urls)
}

// URLs returns a copy of the gallery contents in insertion order.
func (g *Gallery) URLs() []string {
	return slices.Clone(g.urls)
}
