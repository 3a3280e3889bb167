package components

import (
	"fmt"
	"regexp"
)

// BuiltInDefinitions returns the components available to every post.
func BuiltInDefinitions() []Definition {
	return []Definition{
		youTubeDefinition(),
		calloutDefinition(),
		figureDefinition(),
	}
}

var youTubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func youTubeDefinition() Definition {
	return Definition{
		Name:        "YouTube",
		Description: "Embeds a responsive YouTube player",
		Attributes: []Attribute{
			{
				Name:     "id",
				Kind:     AttributeString,
				Required: true,
				Validate: func(value any) error {
					if id, _ := value.(string); !youTubeIDPattern.MatchString(id) {
						return fmt.Errorf("invalid video id %q", value)
					}
					return nil
				},
			},
			{Name: "title", Kind: AttributeString, Default: "YouTube video"},
			{Name: "start", Kind: AttributeInt, Default: 0},
		},
		Template: `<div class="component component--youtube">
  <iframe src="https://www.youtube.com/embed/{{ .id }}{{ if gt .start 0 }}?start={{ .start }}{{ end }}" title="{{ .title }}" loading="lazy" allowfullscreen></iframe>
</div>`,
	}
}

func calloutDefinition() Definition {
	return Definition{
		Name:        "Callout",
		Description: "Highlighted aside around Markdown content",
		AllowInner:  true,
		Attributes: []Attribute{
			{
				Name:    "type",
				Kind:    AttributeString,
				Default: "info",
				Validate: func(value any) error {
					switch value {
					case "info", "note", "tip", "warning", "danger":
						return nil
					default:
						return fmt.Errorf("callout type %q not supported", value)
					}
				},
			},
			{Name: "title", Kind: AttributeString},
		},
		Template: `<aside class="component component--callout component--callout-{{ .type }}" role="note">
  {{ if .title }}<p class="component__title">{{ .title }}</p>{{ end }}
  <div class="component__body">{{ .Inner }}</div>
</aside>`,
	}
}

func figureDefinition() Definition {
	return Definition{
		Name:        "Figure",
		Description: "Image with an optional caption",
		Attributes: []Attribute{
			{Name: "src", Kind: AttributeURL, Required: true},
			{Name: "alt", Kind: AttributeString, Default: ""},
			{Name: "caption", Kind: AttributeString},
		},
		Template: `<figure class="component component--figure">
  <img src="{{ .src }}" alt="{{ .alt }}" loading="lazy" />
  {{ if .caption }}<figcaption>{{ .caption }}</figcaption>{{ end }}
</figure>`,
	}
}
