package cli

import (
	"github.com/AlecAivazis/survey/v2"

	"listing-generator/internal/listing"
)

// Prompter asks the user for one field value.
type Prompter interface {
	Ask(field listing.Field, current string) (string, error)
}

var placeholders = map[listing.Field]string{
	listing.FieldLocation:     "Example: London, Hackney, Grazebrook Rd",
	listing.FieldPropertyDesc: "Example: House, 4 bedrooms, equipped kitchen",
	listing.FieldKeyElements:  "Example: Large garden, quiet, close to shops",
}

var labels = map[listing.Field]string{
	listing.FieldType:         "Type",
	listing.FieldLocation:     "Property location",
	listing.FieldPropertyDesc: "Describe the property",
	listing.FieldKeyElements:  "Key elements",
}

// SurveyPrompter prompts on the terminal.
type SurveyPrompter struct {
	opts []survey.AskOpt
}

func NewSurveyPrompter(opts ...survey.AskOpt) *SurveyPrompter {
	return &SurveyPrompter{opts: opts}
}

func (p *SurveyPrompter) Ask(field listing.Field, current string) (string, error) {
	var answer string
	var prompt survey.Prompt

	switch field {
	case listing.FieldType:
		options := make([]string, 0, len(listing.ListingTypes))
		for _, t := range listing.ListingTypes {
			options = append(options, string(t))
		}
		sel := &survey.Select{
			Message: labels[field],
			Options: options,
			Description: func(value string, _ int) string {
				return listing.ListingType(value).Label()
			},
		}
		if current != "" {
			sel.Default = current
		}
		prompt = sel
	case listing.FieldKeyElements:
		prompt = &survey.Multiline{
			Message: labels[field],
			Default: current,
			Help:    placeholders[field],
		}
	default:
		prompt = &survey.Input{
			Message: labels[field],
			Default: current,
			Help:    placeholders[field],
		}
	}

	if err := survey.AskOne(prompt, &answer, p.opts...); err != nil {
		return "", err
	}
	return answer, nil
}
