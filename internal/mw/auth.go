// internal/mw/auth.go
package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type CtxDeviceKey struct{}

// DeviceID returns the device authenticated by Auth.
func DeviceID(ctx context.Context) string {
	id, _ := ctx.Value(CtxDeviceKey{}).(string)
	return id
}

// Auth requires an HS256 bearer token carrying a device_id claim.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			tok := strings.TrimPrefix(h, "Bearer ")
			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(tok, claims, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			deviceID, _ := claims["device_id"].(string)
			if deviceID == "" {
				http.Error(w, "device_id claim required", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), CtxDeviceKey{}, deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
