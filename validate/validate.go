// Package validate holds the shared struct validator and the ID helpers
// used across the core packages. Entities keep their rules in `validate`
// struct tags and call Check before anything is persisted.
package validate

import (
	"errors"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)
}

// Check validates the struct tags on val. All failing fields are reported
// in a single error so a client can fix a payload in one round trip.
func Check(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	verrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrors))
	for _, verr := range verrors {
		msgs = append(msgs, verr.Translate(translator))
	}
	if len(msgs) == 0 {
		return nil
	}

	return errors.New(strings.Join(msgs, "; "))
}

// GenerateID mints the UUID used as primary key for every entity.
func GenerateID() string {
	return uuid.NewString()
}

// CheckID rejects path parameters that are not well formed UUIDs before
// they reach the database.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("ID is not in its proper form")
	}
	return nil
}
