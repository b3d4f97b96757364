package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the structured body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// Created replies 201 with a Location header pointing at the new resource.
func Created(c echo.Context, location string, data interface{}) error {
	c.Response().Header().Set(echo.HeaderLocation, location)
	return c.JSON(http.StatusCreated, data)
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func Fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{Code: code, Message: message})
}
