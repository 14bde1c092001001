package bookshop

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator with the shop's custom rules:
// decimals compare as numbers and "singleline" rejects the record delimiter
// and line breaks so every value survives the flat-file format.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
			return !strings.ContainsAny(fl.Field().String(), "|\r\n")
		})
		validate = v
	})
	return validate
}

// validateStruct runs the struct tags of s and maps failures onto kind.
func validateStruct(s any, kind error) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Kind: kind, Fields: map[string]string{"*": err.Error()}}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Kind: kind, Fields: fields}
}

func validateBook(b Book) error {
	return validateStruct(b, ErrInvalidBook)
}

// validateCustomer checks name against the Sale.CustomerName tags. A name of
// only spaces counts as missing.
func validateCustomer(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Kind: ErrInvalidCustomer, Fields: map[string]string{"CustomerName": "required"}}
	}
	return validateStruct(Sale{CustomerName: name}, ErrInvalidCustomer)
}

func validateUser(u User) error {
	return validateStruct(u, ErrInvalidUser)
}
