package model

import "strings"

// Education is one entry of the CV's education section.
type Education struct {
	Meta         `bson:",inline"`
	Institution  string `json:"institution" bson:"institution"`
	Degree       string `json:"degree" bson:"degree"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty" bson:"fieldOfStudy"`
	StartDate    string `json:"startDate,omitempty" bson:"startDate"`
	EndDate      string `json:"endDate,omitempty" bson:"endDate"`
	Description  string `json:"description,omitempty" bson:"description"`
}

func (e *Education) Normalize() {
	e.Institution = strings.TrimSpace(e.Institution)
	e.Degree = strings.TrimSpace(e.Degree)
	e.FieldOfStudy = strings.TrimSpace(e.FieldOfStudy)
	e.StartDate = strings.TrimSpace(e.StartDate)
	e.EndDate = strings.TrimSpace(e.EndDate)
	e.Description = strings.TrimSpace(e.Description)
}

func (e *Education) Validate() []FieldError {
	var errs []FieldError
	errs = required(errs, "institution", e.Institution)
	errs = required(errs, "degree", e.Degree)
	return errs
}
