package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"storefront_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configure le validateur de gin : noms JSON dans les erreurs
// et tag "order_status".
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).IsValid()
		})
	}
}

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HandleValidationError répond 400 avec un message par champ invalide.
func HandleValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	details := make([]ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, ValidationDetail{Field: e.Field(), Message: validationMessage(e)})
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   details[0].Field + " : " + details[0].Message,
		"details": details,
	})
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "champ obligatoire"
	case "email":
		return "format d'e-mail invalide"
	case "min":
		return "minimum " + e.Param()
	case "max":
		return "maximum " + e.Param()
	case "gte":
		return "doit être supérieur ou égal à " + e.Param()
	case "lte":
		return "doit être inférieur ou égal à " + e.Param()
	case "oneof":
		return "valeurs possibles : " + e.Param()
	case "order_status":
		return "statut de commande inconnu"
	default:
		return "valeur invalide"
	}
}
