package middlewares

import (
	"net/http"

	"golang.org/x/text/language"
)

var Responses = struct {
	FailedValidations   *NewRM
	InternalServerError *NewRM
	PolicyNotFound      *NewRM
	PolicyUnavailable   *NewRM
	PolicyIDsRequired   *NewRM
	InvalidPagination   *NewRM
}{
	FailedValidations: &NewRM{
		Language.English: "Failed field validations",
		Language.Spanish: "Las validaciones de los campos fallaron",
	},
	InternalServerError: &NewRM{
		Language.English: "Internal server error",
		Language.Spanish: "Problemas con el servidor",
	},
	PolicyNotFound: &NewRM{
		Language.English: "Insurance policy doesn't exist",
		Language.Spanish: "La póliza de seguro no existe",
	},
	PolicyUnavailable: &NewRM{
		Language.English: "Could not verify the insurance policy, try again later",
		Language.Spanish: "No se pudo verificar la póliza de seguro, intenta más tarde",
	},
	PolicyIDsRequired: &NewRM{
		Language.English: "policyIds must be a list of policy ids",
		Language.Spanish: "policyIds debe ser una lista de ids de pólizas",
	},
	InvalidPagination: &NewRM{
		Language.English: "from must be greater than or equal to 0 and size greater than or equal to 1",
		Language.Spanish: "from debe ser mayor o igual a 0 y size mayor o igual a 1",
	},
}

type NewRM map[string]string

var Language = struct {
	English string
	Spanish string
}{
	English: "en",
	Spanish: "es",
}

var LanguageMap = map[string]string{
	Language.Spanish: "Spanish",
	Language.English: "English",
}

var languageMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Spanish,
})

// RequestLanguage picks the supported language that best fits the
// Accept-Language header, English by default.
func RequestLanguage(r *http.Request) string {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return Language.English
	}

	tag, _, _ := languageMatcher.Match(tags...)
	base, _ := tag.Base()
	if _, ok := LanguageMap[base.String()]; ok {
		return base.String()
	}
	return Language.English
}

// Message returns the message in the request language.
func (rm *NewRM) Message(r *http.Request) string {
	if msg, ok := (*rm)[RequestLanguage(r)]; ok {
		return msg
	}
	return (*rm)[Language.English]
}
