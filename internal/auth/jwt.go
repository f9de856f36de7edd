// Package auth implementa el acceso opcional por token Bearer (JWT HS256).
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// Issuer va en cada token emitido y se exige al validar.
const Issuer = "gestiondash"

// Claims del token. Subject identifica al consumidor (tablero, script, etc.).
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

type contextKey struct{}

// Guard firma y valida tokens con una clave compartida.
type Guard struct {
	secret []byte
	public map[string]bool
}

// NewGuard crea un guard. Las rutas de publicPaths no piden token.
func NewGuard(secret string, publicPaths ...string) (*Guard, error) {
	if secret == "" {
		return nil, eris.New("auth.jwt_secret vacío")
	}
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}
	return &Guard{secret: []byte(secret), public: public}, nil
}

// GenerateToken emite un token para subject válido por ttl.
func (g *Guard) GenerateToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Scope: "read",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", eris.Wrap(err, "error firmando token")
	}
	return signed, nil
}

// Parse valida firma, algoritmo, emisor y vencimiento.
func (g *Guard) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "token inválido")
	}
	if !token.Valid {
		return nil, eris.New("token inválido")
	}
	return claims, nil
}

// Middleware exige "Authorization: Bearer <token>" salvo en rutas públicas
// y en preflight CORS.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.public[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "se requiere el header Authorization")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(w, "formato de autorización inválido")
			return
		}

		claims, err := g.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			unauthorized(w, "token inválido")
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext devuelve los claims que dejó el middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	if !ok {
		return nil, errors.New("no hay token en el contexto")
	}
	return claims, nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
