package utils

import (
	"errors"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

func IsValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	if countryCode == "" {
		countryCode = "MM"
	}
	num, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(num) {
		return errors.New("invalid phone number")
	}
	return nil
}

// map binding errors to field:message pairs for API responses
func ProcessValidationErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["error"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		default:
			out[fe.Field()] = "is invalid (" + fe.Tag() + ")"
		}
	}
	return out
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]bool)
	result := []T{}
	for _, v := range slice {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}
