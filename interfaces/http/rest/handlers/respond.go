package handlers

import (
	"errors"
	"net/http"

	"warrantboard/domain/fusion"
	"warrantboard/pkg/common"
	pkgerrors "warrantboard/pkg/errors"

	"go.uber.org/zap"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// playerID returns the authenticated player or writes a 401.
func playerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := common.GetPlayerID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, common.CodeUnauthorized, "Unauthorized")
		return "", false
	}
	return id, true
}

// respondError maps session errors onto the API envelope. Board rule codes
// win over the generic error type so clients can explain a refusal.
func respondError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var fusionErr *fusion.Error
	if errors.As(err, &fusionErr) {
		common.RespondErrorWithDetails(w, http.StatusUnprocessableEntity, pkgerrors.CodeFusionRejected, fusionErr.Message,
			map[string]interface{}{"reason": string(fusionErr.Reason)})
		return
	}

	appErr := pkgerrors.GetAppError(err)
	if appErr == nil {
		logger.Error("Request failed", zap.String("operation", op), zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, common.CodeInternal, "Internal server error")
		return
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := appErr.Code
	if code == "" {
		code = string(appErr.Type)
	}
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("operation", op), zap.Error(err))
		if appErr.Type != pkgerrors.ErrorTypeUnavailable {
			message = "Internal server error"
		}
	}
	common.RespondErrorWithDetails(w, status, code, message, appErr.Details)
}

func badRequest(w http.ResponseWriter, err error) {
	common.RespondError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error())
}
