package handler

import (
	"net/http"

	"orderitems/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: string(usecase.KindInvalid)})
}

// usecaseのエラー種類をHTTPステータスに変換
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	ue, ok := usecase.AsError(err)
	if !ok {
		//500
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: string(usecase.KindInternal)})
	}

	switch ue.Kind {
	case usecase.KindNotFound:
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: ue.Message, Code: string(ue.Kind)})
	case usecase.KindInvalid:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: ue.Message, Code: string(ue.Kind)})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: string(usecase.KindInternal)})
	}
}
