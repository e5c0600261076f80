package listing

import "context"

// Request is the wire payload of the generation service. Field names are
// renamed from the form: type -> listingType, propertyDesc ->
// propertyDetails, keyElements -> keySellingPoints.
type Request struct {
	ListingType      string `json:"listingType"`
	Location         string `json:"location"`
	PropertyDetails  string `json:"propertyDetails"`
	KeySellingPoints string `json:"keySellingPoints"`
}

// NewRequest copies the form values verbatim; no trimming happens here.
func NewRequest(form FormState) Request {
	return Request{
		ListingType:      string(form.Type),
		Location:         form.Location,
		PropertyDetails:  form.PropertyDesc,
		KeySellingPoints: form.KeyElements,
	}
}

// Generator calls the remote listing generation service. One call, one
// attempt.
type Generator interface {
	Generate(ctx context.Context, req Request) (*ListingResult, error)
}
