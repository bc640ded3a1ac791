package httpx

import (
	"net/mail"

	"github.com/google/uuid"

	"github.com/alimagdye/product-management-api/internal/domain"
)

const maxNameLength = 254

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func validStatus(s string) bool {
	return domain.ValidUpdateStatus(s)
}
