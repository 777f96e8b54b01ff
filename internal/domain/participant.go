package domain

type Participant struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
	Role string `json:"role" yaml:"role"`
}
