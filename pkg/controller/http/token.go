package http

import (
	"net/http"

	"github.com/secmon-lab/instaai/pkg/usecase"
	"github.com/secmon-lab/instaai/pkg/utils/errutil"
)

type exchangeTokenRequest struct {
	Code string `json:"code"`
}

type exchangeTokenResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

func exchangeTokenHandler(uc *usecase.TokenUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exchangeTokenRequest
		if err := decodeBody(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		result, err := uc.Exchange(r.Context(), req.Code)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, exchangeTokenResponse{
			AccessToken: result.AccessToken,
			UserID:      result.UserID,
			TokenType:   result.TokenType.String(),
			ExpiresIn:   result.ExpiresIn,
			Warning:     result.Warning,
		})
	}
}

type storeTokenRequest struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	TokenType   string `json:"token_type"`
}

type storeTokenResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func storeTokenHandler(uc *usecase.TokenUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storeTokenRequest
		if err := decodeBody(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		result, err := uc.ValidateAndStore(r.Context(), usecase.StoreTokenInput{
			AccessToken: req.AccessToken,
			UserID:      req.UserID,
			TokenType:   req.TokenType,
		})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, storeTokenResponse{
			Status:   "success",
			Message:  "Token stored successfully",
			UserID:   result.UserID,
			Username: result.Username,
		})
	}
}

type deleteUserRequest struct {
	UserID    string `json:"user_id"`
	IsDeleted *bool  `json:"is_deleted"`
}

func deleteUserHandler(uc *usecase.TokenUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteUserRequest
		if err := decodeBody(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		isDeleted := true
		if req.IsDeleted != nil {
			isDeleted = *req.IsDeleted
		}

		msg, err := uc.DeleteUser(r.Context(), req.UserID, isDeleted)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, successResponse{Success: true, Message: msg})
	}
}
