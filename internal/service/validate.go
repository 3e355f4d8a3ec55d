package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pribylovaa/techblog/internal/models"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return models.ValidCategory(fl.Field().String())
		})
		validate = v
	})

	return validate
}

// check валидирует структуру по тегам validate и превращает первую ошибку
// в *ValidationError. Если нарушено хоть одно required и задан required-текст,
// возвращается он. Иначе сообщение ищется в messages по ключу "Field.tag",
// затем по "Field".
func check(in any, required string, messages map[string]string) error {
	err := validatorInstance().Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("Invalid input")
	}

	if required != "" {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return invalid(required)
			}
		}
	}

	fe := verrs[0]
	if m, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return invalid(m)
	}
	if m, ok := messages[fe.Field()]; ok {
		return invalid(m)
	}

	return invalid(fmt.Sprintf("%s is invalid", fe.Field()))
}
