package strengths

import "strings"

// DefaultTargetLabel is used when a target profile carries no name.
const DefaultTargetLabel = "Target Profile"

// Profile is an employee's ranked list of themes, position 0 being the strongest.
type Profile struct {
	EmailAddress string   `json:"email_address" mapstructure:"email_address" dynamodbav:"email_address"`
	FirstName    string   `json:"first_name" mapstructure:"first_name" dynamodbav:"first_name"`
	LastName     string   `json:"last_name" mapstructure:"last_name" dynamodbav:"last_name"`
	Strengths    []string `json:"strengths" mapstructure:"strengths" dynamodbav:"strengths"`
}

// FullName joins the name fields with a single space.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Complete reports whether the profile ranks at least ThemeCount themes.
func (p Profile) Complete() bool {
	return len(p.Strengths) >= ThemeCount
}

// TargetLabel returns the display name of a comparison target.
func TargetLabel(p Profile) string {
	if name := p.FullName(); name != "" {
		return name
	}
	return DefaultTargetLabel
}
