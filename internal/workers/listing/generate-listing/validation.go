package generatelisting

import "listing-generator/internal/common/validation"

// GetInputSchema only checks variable types. Blank or missing values are
// left to listing.Validate so the process sees the same messages as the
// form.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"type": {
				Type:        "string",
				Description: "Listing type",
				Enum:        []string{"", "sale", "rent"},
			},
			"location": {
				Type:        "string",
				Description: "Property location",
				MaxLength:   validation.IntPtr(500),
			},
			"propertyDesc": {
				Type:        "string",
				Description: "Short description of the property",
				MaxLength:   validation.IntPtr(5000),
			},
			"keyElements": {
				Type:        "string",
				Description: "Key selling points",
				MaxLength:   validation.IntPtr(5000),
			},
		},
		// process instances carry unrelated variables
		AdditionalProperties: true,
	}
}
