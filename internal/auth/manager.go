package auth

import (
	"context"
	"database/sql"
	"time"

	"stb/internal/logging"
)

// ManagerConfig configures the auth manager
type ManagerConfig struct {
	Enabled      bool            `json:"enabled"`
	RequireAuth  bool            `json:"require_auth"` // If false, unauthenticated gets read-only
	RateLimiting RateLimitConfig `json:"rate_limiting"`
}

// DefaultManagerConfig returns sensible defaults
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Enabled:      false,
		RequireAuth:  true,
		RateLimiting: DefaultRateLimitConfig(),
	}
}

// Manager handles API key authentication
type Manager struct {
	config      ManagerConfig
	store       *KeyStore
	rateLimiter *RateLimiter
	logger      *logging.Logger
}

// NewManager creates a new auth manager backed by the given database
func NewManager(config ManagerConfig, db *sql.DB, logger *logging.Logger) (*Manager, error) {
	m := &Manager{
		config: config,
		logger: logger,
	}

	if db != nil {
		m.store = NewKeyStore(db, logger)
		if err := m.store.InitSchema(); err != nil {
			return nil, err
		}
	}

	m.rateLimiter = NewRateLimiter(config.RateLimiting, logger)

	logger.Info("Auth manager initialized", map[string]interface{}{
		"enabled":       config.Enabled,
		"require_auth":  config.RequireAuth,
		"rate_limiting": config.RateLimiting.Enabled,
	})

	return m, nil
}

// Authenticate validates a bearer token and returns auth result
func (m *Manager) Authenticate(token string, requiredScope Scope) *AuthResult {
	result := &AuthResult{}

	// Check if auth is enabled
	if !m.config.Enabled {
		result.Authenticated = true
		result.Scopes = []Scope{ScopeAdmin} // Full access when auth disabled
		return result
	}

	// Handle missing token
	if token == "" {
		if !m.config.RequireAuth && requiredScope == ScopeRead {
			// Allow unauthenticated read access
			result.Authenticated = true
			result.Scopes = []Scope{ScopeRead}
			return result
		}
		result.ErrorCode = ErrCodeMissingToken
		result.ErrorMessage = "Authorization header required"
		return result
	}

	// Look up key by token prefix
	prefix := ExtractTokenPrefix(token)
	key := m.findKeyByPrefix(prefix, token)

	if key == nil {
		result.ErrorCode = ErrCodeInvalidToken
		result.ErrorMessage = "Invalid API key"
		return result
	}

	// Check if key is active
	if key.Revoked {
		result.ErrorCode = ErrCodeRevokedToken
		result.ErrorMessage = "API key has been revoked"
		return result
	}

	if key.IsExpired() {
		result.ErrorCode = ErrCodeExpiredToken
		result.ErrorMessage = "API key has expired"
		return result
	}

	// Check scope
	if !key.HasScope(requiredScope) {
		result.ErrorCode = ErrCodeInsufficientScope
		result.ErrorMessage = "Insufficient scope for this operation"
		return result
	}

	// Check rate limit
	if m.rateLimiter != nil {
		allowed, retryAfter := m.rateLimiter.Allow(key.ID, key.RateLimit)
		if !allowed {
			result.RateLimited = true
			result.RetryAfter = retryAfter
			result.ErrorCode = ErrCodeRateLimited
			result.ErrorMessage = "Rate limit exceeded"

			m.logAuditEvent(AuditEvent{
				EventType:  AuditEventRateLimited,
				KeyID:      key.ID,
				KeyName:    key.Name,
				OccurredAt: time.Now(),
			})

			return result
		}
	}

	// Update last used timestamp (async, don't block)
	go m.updateLastUsed(key.ID)

	// Success
	result.Authenticated = true
	result.KeyID = key.ID
	result.KeyName = key.Name
	result.Scopes = key.Scopes

	return result
}

// findKeyByPrefix looks up a key by token prefix and verifies the token
// against each candidate's hash
func (m *Manager) findKeyByPrefix(prefix, fullToken string) *APIKey {
	if m.store == nil {
		return nil
	}

	keys, err := m.store.GetByTokenPrefix(prefix)
	if err != nil {
		m.logger.Error("Failed to lookup key by prefix", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	for _, key := range keys {
		if VerifyToken(fullToken, key.TokenHash) {
			return key
		}
	}

	return nil
}

// updateLastUsed updates the last_used_at timestamp for a key
func (m *Manager) updateLastUsed(keyID string) {
	if m.store != nil {
		if err := m.store.UpdateLastUsed(keyID, time.Now()); err != nil {
			m.logger.Warn("Failed to update last used", map[string]interface{}{
				"key_id": keyID,
				"error":  err.Error(),
			})
		}
	}
}

// CreateKey generates a new API key
// Returns: key (without hash), raw token, error
func (m *Manager) CreateKey(opts CreateKeyOptions) (*APIKey, string, error) {
	if err := opts.Validate(); err != nil {
		return nil, "", err
	}

	if m.store == nil {
		return nil, "", ErrStoreNotInitialized
	}

	keyID, err := GenerateKeyID()
	if err != nil {
		return nil, "", err
	}

	rawToken, prefix, err := GenerateToken()
	if err != nil {
		return nil, "", err
	}

	tokenHash, err := HashToken(rawToken)
	if err != nil {
		return nil, "", err
	}

	key := &APIKey{
		ID:          keyID,
		Name:        opts.Name,
		TokenHash:   tokenHash,
		TokenPrefix: prefix,
		Scopes:      opts.Scopes,
		RateLimit:   opts.RateLimit,
		ExpiresAt:   opts.ExpiresAt,
		CreatedAt:   time.Now(),
		CreatedBy:   opts.CreatedBy,
	}

	if err := m.store.Save(key); err != nil {
		return nil, "", err
	}

	m.logAuditEvent(AuditEvent{
		EventType:  AuditEventKeyCreated,
		KeyID:      key.ID,
		KeyName:    key.Name,
		OccurredAt: time.Now(),
		Details: map[string]string{
			"created_by": opts.CreatedBy,
		},
	})

	return key, rawToken, nil
}

// RevokeKey revokes an API key
func (m *Manager) RevokeKey(id string) error {
	if m.store == nil {
		return ErrStoreNotInitialized
	}

	key, err := m.store.GetByID(id)
	if err != nil {
		return err
	}

	now := time.Now()
	key.Revoked = true
	key.RevokedAt = &now

	if err := m.store.Update(key); err != nil {
		return err
	}

	// Reset rate limit for this key
	if m.rateLimiter != nil {
		m.rateLimiter.Reset(id)
	}

	m.logAuditEvent(AuditEvent{
		EventType:  AuditEventKeyRevoked,
		KeyID:      key.ID,
		KeyName:    key.Name,
		OccurredAt: time.Now(),
	})

	return nil
}

// ListKeys returns all API keys (token hashes redacted)
func (m *Manager) ListKeys(includeRevoked bool) ([]*APIKey, error) {
	if m.store == nil {
		return nil, ErrStoreNotInitialized
	}

	keys, err := m.store.List(includeRevoked)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		key.TokenHash = "" // Redact
	}

	return keys, nil
}

// GetKey returns a single API key by ID
func (m *Manager) GetKey(id string) (*APIKey, error) {
	if m.store == nil {
		return nil, ErrKeyNotFound
	}

	key, err := m.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	key.TokenHash = "" // Redact
	return key, nil
}

// logAuditEvent logs an audit event if store is available
func (m *Manager) logAuditEvent(event AuditEvent) {
	if m.store != nil {
		if err := m.store.LogAuditEvent(event); err != nil {
			m.logger.Warn("Failed to log audit event", map[string]interface{}{
				"event_type": event.EventType,
				"error":      err.Error(),
			})
		}
	}
}

// StartBackgroundTasks starts background maintenance tasks
func (m *Manager) StartBackgroundTasks(ctx context.Context) {
	if m.rateLimiter != nil {
		m.rateLimiter.StartCleanup(ctx)
	}
}

// Stats returns manager statistics
func (m *Manager) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"enabled":      m.config.Enabled,
		"require_auth": m.config.RequireAuth,
	}

	if m.rateLimiter != nil {
		stats["rate_limiter"] = m.rateLimiter.Stats()
	}

	return stats
}
