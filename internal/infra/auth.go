package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/skillhub/chat-service/internal/config"
)

// AuthInterceptorHTTP validates the caller's bearer token and puts the caller
// uuid into the request context under config.KeyUUID.
func AuthInterceptorHTTP(next http.Handler, secret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeUnauthorized(w, "missing Authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeUnauthorized(w, "invalid Authorization header")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			writeUnauthorized(w, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeUnauthorized(w, "invalid token claims")
			return
		}

		userUUID, ok := claims["uuid"].(string)
		if !ok || userUUID == "" {
			writeUnauthorized(w, "token has no user uuid")
			return
		}

		// handlers rely on the caller id being a well-formed uuid
		if _, err := uuid.Parse(userUUID); err != nil {
			writeUnauthorized(w, "token carries a malformed user uuid")
			return
		}

		ctx := context.WithValue(r.Context(), config.KeyUUID, userUUID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
