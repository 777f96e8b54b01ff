package whiteboard

import (
	"fmt"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func validateElement(e domain.Element) error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidElement, e.ID, err)
	}
	return nil
}

// checkEndpoints verifies every connector endpoint resolves against exists.
func checkEndpoints(e domain.Element, exists func(id string) bool) error {
	if e.Kind != domain.KindConnector {
		if len(e.Connections) > 0 {
			return fmt.Errorf("%w: %s: only connectors carry connections", domain.ErrInvalidElement, e.ID)
		}
		return nil
	}
	for _, id := range e.Connections {
		if id == e.ID {
			return fmt.Errorf("%w: connector %s references itself", domain.ErrInvalidElement, e.ID)
		}
		if !exists(id) {
			return fmt.Errorf("%w: connector %s references unknown element %s", domain.ErrInvalidElement, e.ID, id)
		}
	}
	return nil
}
