package generatelisting

import (
	"listing-generator/internal/common/logger"
	"listing-generator/internal/listing"
)

// Input uses the form field names as process variable names.
type Input struct {
	Type         string `json:"type"`
	Location     string `json:"location"`
	PropertyDesc string `json:"propertyDesc"`
	KeyElements  string `json:"keyElements"`
}

type Output struct {
	Listing          listing.ListingResult `json:"listing"`
	ListingGenerated bool                  `json:"listingGenerated"`
}

type ServiceDependencies struct {
	Logger    logger.Logger
	Generator listing.Generator
}
