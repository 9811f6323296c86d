package helpers

import (
	"errors"
	"fmt"
	"reflect"

	"bitbucket.org/insurance/payments/models"
	"github.com/google/uuid"
	"github.com/thedevsaddam/govalidator"
)

func ruleError(message string, format string, args ...interface{}) error {
	if message != "" {
		return errors.New(message)
	}
	return fmt.Errorf(format, args...)
}

func init() {
	govalidator.AddCustomRule("array_string", func(field string, rule string, message string, value interface{}) error {
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Array || rv.Kind() == reflect.Slice {
			arr, ok := value.([]string)
			if !ok {
				return fmt.Errorf("The %s field must be array of string", field)
			}
			for _, v := range arr {
				if v == "" {
					return ruleError(message, "The %s field must be array of string not empty", field)
				}
			}
		}
		return nil
	})
	govalidator.AddCustomRule("policy_uuid", func(field string, rule string, message string, value interface{}) error {
		if value == nil {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return ruleError(message, "The %s field should be a string", field)
		}
		if s == "" {
			return nil
		}
		if _, err := uuid.Parse(s); err != nil || len(s) != 36 {
			return ruleError(message, "The %s field should be a valid UUID format", field)
		}
		return nil
	})
	govalidator.AddCustomRule("payment_amount", func(field string, rule string, message string, value interface{}) error {
		if value == nil {
			return nil
		}
		if _, ok := value.(float64); !ok {
			return ruleError(message, "The %s field should be a number", field)
		}
		return nil
	})
	govalidator.AddCustomRule("payment_method", func(field string, rule string, message string, value interface{}) error {
		if value == nil {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return ruleError(message, "The %s field should be a string", field)
		}
		if s != "" && !models.PaymentMethod(s).Valid() {
			return ruleError(message, "The %s field should be one of: %v", field, models.PaymentMethods)
		}
		return nil
	})
	// an explicit empty status never reaches this rule, the store rejects it
	govalidator.AddCustomRule("payment_status", func(field string, rule string, message string, value interface{}) error {
		if value == nil {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return ruleError(message, "The %s field should be a string", field)
		}
		if !models.PaymentStatus(s).Valid() {
			return ruleError(message, "The %s field should be one of: %v", field, models.PaymentStatuses)
		}
		return nil
	})
}
