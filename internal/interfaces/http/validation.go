package http

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/megaventa/pos-api/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct aplica las etiquetas validate del DTO. Devuelve domain.ErrInvalidInput
// con el detalle de los campos rechazados.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
}

// paramID lee un UUID de la ruta.
func paramID(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s inválido", domain.ErrInvalidInput, name)
	}
	return id, nil
}
