package domain

// RequestKind classifies acquisition requests. Some kinds map directly to a mode.
type RequestKind string

const (
	KindGeneric         RequestKind = "generic"
	KindAngularSpectrum RequestKind = "angular-spectrum"
	KindAngleResolved   RequestKind = "angle-resolved"
	KindOverlay         RequestKind = "overlay"
)

// Request is a high-level acquisition request from the acquisition layer.
type Request interface {
	Kind() RequestKind
	// Detector returns the detector the request acquires from. Composite requests may return nil.
	Detector() Component
	// SubRequests returns the parts of a composite request, or nil.
	SubRequests() []Request
}

// StreamRequest is a plain Request implementation.
type StreamRequest struct {
	RequestKind RequestKind
	Det         Component
	Subs        []Request
}

// NewRequest returns a single-detector request.
func NewRequest(kind RequestKind, detector Component) *StreamRequest {
	return &StreamRequest{RequestKind: kind, Det: detector}
}

// NewComposite returns a request made of several sub-requests.
func NewComposite(subs ...Request) *StreamRequest {
	return &StreamRequest{RequestKind: KindGeneric, Subs: subs}
}

func (r *StreamRequest) Kind() RequestKind {
	if r.RequestKind == "" {
		return KindGeneric
	}
	return r.RequestKind
}

func (r *StreamRequest) Detector() Component { return r.Det }

func (r *StreamRequest) SubRequests() []Request { return r.Subs }

// Target is what a path change aims at: either a mode (with an optional
// explicit detector) or a request from which the mode is inferred.
type Target struct {
	Mode     string
	Detector Component
	Request  Request
}
