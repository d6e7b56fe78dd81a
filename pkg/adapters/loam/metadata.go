package loam

// FeedbackMetadata is the frontmatter of the workspace template (feedback.md).
// It uses "mapstructure" tags to match the YAML keys.
type FeedbackMetadata struct {
	Title string `json:"title,omitempty" mapstructure:"title"`

	// Properties is the property schema in the same record form as properties.yaml.
	Properties []map[string]any `json:"properties,omitempty" mapstructure:"properties"`
}
