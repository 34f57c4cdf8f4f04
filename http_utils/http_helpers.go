package http_utils

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/judgegodwins/chess-rooms/logger"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

func SendResponse(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.L().Error("marshal response", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

// ValidateStruct returns a populated response when validation fails and
// the zero value otherwise.
func ValidateStruct(v *validator.Validate, s interface{}) ValidationErrorResponse {
	if err := v.Struct(s); err != nil {
		return ValidationErrorResponse{
			BaseResponse: BaseResponse{
				Success: false,
				Message: "invalid request, validation failed",
			},
			Errors: lo.Map(err.(validator.ValidationErrors), func(item validator.FieldError, index int) string {
				return item.Error()
			}),
		}
	}

	return ValidationErrorResponse{}
}
