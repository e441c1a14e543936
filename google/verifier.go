package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultJWKSURL is Google's public signing key endpoint
const DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var (
	// ErrInvalidToken is returned when the ID token fails any verification step
	ErrInvalidToken = errors.New("invalid google id token")

	// ErrTokenExpired is returned when the ID token has expired
	ErrTokenExpired = errors.New("google id token expired")

	// ErrInvalidIssuer is returned when the token issuer is not Google
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrUnknownKey is returned when no published key matches the token kid
	ErrUnknownKey = errors.New("unknown signing key")

	// ErrJWKSFetchFailed is returned when JWKS fetching fails
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// JWKS represents the JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Config holds configuration for IDTokenVerifier
type Config struct {
	ClientID           string
	JWKSURL            string
	CacheTTL           time.Duration
	MinRefreshInterval time.Duration
	HTTPTimeout        time.Duration
	HTTPClient         *http.Client
	Now                func() time.Time
	// OnRefresh, when set, is called after every key fetch attempt
	OnRefresh func(err error)
}

// IDTokenVerifier verifies Google-issued ID tokens against Google's published keys
type IDTokenVerifier struct {
	clientID   string
	jwksURL    string
	httpClient *http.Client
	cacheTTL   time.Duration
	minRefresh time.Duration
	now        func() time.Time
	onRefresh  func(error)
	logger     *zap.Logger

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	expiresAt  time.Time
	lastFetch  time.Time
	generation uint64

	fetchMu sync.Mutex
}

// NewIDTokenVerifier creates a verifier for tokens issued to config.ClientID
func NewIDTokenVerifier(config Config, logger *zap.Logger) (*IDTokenVerifier, error) {
	if config.ClientID == "" {
		return nil, errors.New("google client id is required")
	}
	if config.JWKSURL == "" {
		config.JWKSURL = DefaultJWKSURL
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Hour
	}
	if config.MinRefreshInterval < 0 {
		config.MinRefreshInterval = 0
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = 10 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.HTTPTimeout}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IDTokenVerifier{
		clientID:   config.ClientID,
		jwksURL:    config.JWKSURL,
		httpClient: config.HTTPClient,
		cacheTTL:   config.CacheTTL,
		minRefresh: config.MinRefreshInterval,
		now:        config.Now,
		onRefresh:  config.OnRefresh,
		logger:     logger,
		keys:       make(map[string]*rsa.PublicKey),
	}, nil
}

// Verify checks signature, issuer, audience and expiry of a raw ID token and
// returns the identity it asserts. Every failure wraps ErrInvalidToken.
func (v *IDTokenVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(rawToken, claims,
		func(token *jwt.Token) (interface{}, error) {
			kid, ok := token.Header["kid"].(string)
			if !ok || kid == "" {
				return nil, errors.New("kid header not found")
			}
			return v.publicKey(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if !validIssuer(claims.Issuer) {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidToken, ErrInvalidIssuer, claims.Issuer)
	}

	identity, err := claims.Identity()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return identity, nil
}

// publicKey returns the key for kid, refreshing the key set when it is stale or
// when kid is unknown and the minimum refresh interval has passed
func (v *IDTokenVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := v.now().Before(v.expiresAt)
	canForce := v.now().Sub(v.lastFetch) >= v.minRefresh
	generation := v.generation
	v.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}
	if fresh && !canForce {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
	}

	if err := v.refresh(ctx, generation); err != nil {
		if ok {
			v.logger.Warn("JWKS refresh failed, using cached key",
				zap.String("kid", kid),
				zap.Error(err),
			)
			return key, nil
		}
		return nil, err
	}

	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
	}
	return key, nil
}

// refresh fetches the key set unless another caller already replaced the
// generation observed by this one
func (v *IDTokenVerifier) refresh(ctx context.Context, observed uint64) error {
	v.fetchMu.Lock()
	defer v.fetchMu.Unlock()

	v.mu.RLock()
	current := v.generation
	v.mu.RUnlock()
	if current != observed {
		return nil
	}

	jwks, maxAge, err := v.FetchJWKS(ctx)
	if v.onRefresh != nil {
		v.onRefresh(err)
	}
	if err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for i := range jwks.Keys {
		jwk := &jwks.Keys[i]
		if jwk.Kty != "RSA" || (jwk.Alg != "" && jwk.Alg != "RS256") || jwk.Use == "enc" {
			continue
		}
		publicKey, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			v.logger.Warn("Skipping malformed JWK", zap.String("kid", jwk.Kid), zap.Error(err))
			continue
		}
		keys[jwk.Kid] = publicKey
	}

	ttl := v.cacheTTL
	if maxAge > 0 {
		ttl = maxAge
	}

	now := v.now()
	v.mu.Lock()
	v.keys = keys
	v.expiresAt = now.Add(ttl)
	v.lastFetch = now
	v.generation++
	v.mu.Unlock()

	v.logger.Debug("JWKS refreshed",
		zap.Int("keys", len(keys)),
		zap.Duration("ttl", ttl),
	)
	return nil
}

// FetchJWKS fetches the key set and the max-age advertised by the response
func (v *IDTokenVerifier) FetchJWKS(ctx context.Context) (*JWKS, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, 0, fmt.Errorf("%w: decode: %v", ErrJWKSFetchFailed, err)
	}

	return &jwks, parseMaxAge(resp.Header.Get("Cache-Control")), nil
}

// InvalidateCache drops all cached keys so the next verification refetches them
func (v *IDTokenVerifier) InvalidateCache() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys = make(map[string]*rsa.PublicKey)
	v.expiresAt = time.Time{}
	v.lastFetch = time.Time{}
	v.generation++
}

// CachedKeyIDs returns the key ids currently held
func (v *IDTokenVerifier) CachedKeyIDs() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ids := make([]string, 0, len(v.keys))
	for kid := range v.keys {
		ids = append(ids, kid)
	}
	return ids
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 {
		return nil, errors.New("empty modulus or exponent")
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() > int64(^uint32(0)>>1) {
		return nil, errors.New("exponent out of range")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}

func parseMaxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		value, ok := strings.CutPrefix(strings.ToLower(directive), "max-age=")
		if !ok {
			continue
		}
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	return 0
}
