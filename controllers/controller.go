// Package controllers holds the thin HTTP handlers. They orchestrate the
// entity store, the ownership policy and the view builder per operation and
// map core errors onto the response envelope; business rules live below.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kirill-Khudyakov/shotline/permissions"
	"github.com/Kirill-Khudyakov/shotline/store"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// respondError maps core errors onto HTTP statuses. Authorization failures
// keep 401 (not authenticated) distinct from 403 (not owner).
func respondError(ctx *gin.Context, code int, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, store.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, code, err.Error())
	case errors.Is(err, store.ErrConflict):
		utils.Error(ctx, http.StatusConflict, code, err.Error())
	case errors.Is(err, permissions.ErrNotAuthenticated):
		utils.Error(ctx, http.StatusUnauthorized, code, err.Error())
	case errors.Is(err, permissions.ErrNotOwner):
		utils.Error(ctx, http.StatusForbidden, code, err.Error())
	default:
		if utils.Sugar != nil {
			utils.Sugar.Errorf("%s %s: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
		}
		utils.Error(ctx, http.StatusInternalServerError, code, "internal server error")
	}
}

// Page sizes beyond the cap are clamped, not rejected.
const maxPageSize = 100

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 {
		if s > maxPageSize {
			s = maxPageSize
		}
		pageSize = s
	}
	return page, pageSize
}

// uintParam parses a numeric path parameter; ok is false after an error
// response has been written.
func uintParam(ctx *gin.Context, name string, code int) (uint, bool) {
	raw := ctx.Param(name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, code, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
