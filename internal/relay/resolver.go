package relay

import (
	"strings"
	"sync"

	"orthoview/internal/model"
)

// AssetClass categorizes an intercepted guest URL.
type AssetClass int

const (
	ClassOther AssetClass = iota
	ClassModel
	ClassPDF
)

// Classify reports whether a URL refers to a substitutable asset.
func Classify(raw string) AssetClass {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, ".glb") || strings.Contains(lower, ".gltf") {
		return ClassModel
	}
	if strings.Contains(lower, ".pdf") {
		return ClassPDF
	}
	return ClassOther
}

// Substitute maps a guest URL onto the signed asset URLs. Model URLs
// containing "separate" go to the separate model, "united" to the united
// model, and anything else defaults to the united model. Non-asset URLs
// pass through unmodified.
func Substitute(u model.AssetURLs, raw string) string {
	switch Classify(raw) {
	case ClassPDF:
		return u.PDFURL
	case ClassModel:
		lower := strings.ToLower(raw)
		if strings.Contains(lower, "separate") {
			return u.SeparateModelURL
		}
		return u.UnitedModelURL
	default:
		return raw
	}
}

// Resolver owns the signed asset URLs of one viewer instance and the queue
// of continuations suspended until they arrive. Suspended continuations are
// drained synchronously and in FIFO order the moment SetAssetURLs is called.
// There is deliberately no timeout: a viewer whose host never delivers URLs
// keeps waiting, matching the accepted failure mode of the integration.
type Resolver struct {
	mu       sync.Mutex
	urls     model.AssetURLs
	received bool
	pending  []func(model.AssetURLs)
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Ready reports whether asset URLs have been delivered.
func (r *Resolver) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received
}

// SetAssetURLs stores the delivered URLs and resumes every suspended
// continuation in the order it was queued. Repeated deliveries are
// tolerated; later ones simply replace the URLs.
func (r *Resolver) SetAssetURLs(u model.AssetURLs) {
	r.mu.Lock()
	r.urls = u
	r.received = true
	queue := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, fn := range queue {
		fn(u)
	}
}

// OnReady runs fn with the asset URLs, immediately if they are already
// known, otherwise once they arrive.
func (r *Resolver) OnReady(fn func(model.AssetURLs)) {
	r.mu.Lock()
	if r.received {
		u := r.urls
		r.mu.Unlock()
		fn(u)
		return
	}
	r.pending = append(r.pending, fn)
	r.mu.Unlock()
}

// Resolve substitutes raw once URLs are available and hands the result to
// fn. Non-asset URLs resolve immediately to themselves.
func (r *Resolver) Resolve(raw string, fn func(resolved string)) {
	if Classify(raw) == ClassOther {
		fn(raw)
		return
	}
	r.OnReady(func(u model.AssetURLs) {
		fn(Substitute(u, raw))
	})
}

// TryResolve substitutes raw without suspending. The second return is
// false when the URL is an asset but the signed URLs are not known yet.
func (r *Resolver) TryResolve(raw string) (string, bool) {
	if Classify(raw) == ClassOther {
		return raw, true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.received {
		return "", false
	}
	return Substitute(r.urls, raw), true
}
