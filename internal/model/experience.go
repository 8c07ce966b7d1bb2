package model

import "strings"

// Experience is one job in the CV. EndDate stays empty for a current position.
type Experience struct {
	Meta        `bson:",inline"`
	Company     string `json:"company" bson:"company"`
	Position    string `json:"position" bson:"position"`
	StartDate   string `json:"startDate" bson:"startDate"`
	EndDate     string `json:"endDate,omitempty" bson:"endDate"`
	Description string `json:"description" bson:"description"`
}

func (e *Experience) Normalize() {
	e.Company = strings.TrimSpace(e.Company)
	e.Position = strings.TrimSpace(e.Position)
	e.StartDate = strings.TrimSpace(e.StartDate)
	e.EndDate = strings.TrimSpace(e.EndDate)
	e.Description = strings.TrimSpace(e.Description)
}

func (e *Experience) Validate() []FieldError {
	var errs []FieldError
	errs = required(errs, "company", e.Company)
	errs = required(errs, "position", e.Position)
	errs = required(errs, "startDate", e.StartDate)
	errs = required(errs, "description", e.Description)
	return errs
}
