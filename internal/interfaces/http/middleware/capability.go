package middleware

import (
	"net/http"
	"strings"

	ledgerapp "github.com/feeledger/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operator context keys and headers
const (
	OperatorIDKey        = "operator_id"
	OperatorGrantsKey    = "operator_grants"
	OperatorHeaderKey    = "X-Operator-ID"
	OperatorGrantsHeader = "X-Operator-Grants"
)

// Grant names accepted in the grants header
const (
	GrantApprovePayments = "approve_payments"
	GrantManageLedger    = "manage_ledger"
)

// OperatorConfig holds configuration for operator middleware
type OperatorConfig struct {
	// Required rejects requests that carry no operator identity
	Required bool
	// SkipPaths are paths that don't require an operator (e.g. health check)
	SkipPaths []string
	// SkipPathPrefixes are path prefixes exempt from operator extraction
	// (gateway callbacks carry no operator)
	SkipPathPrefixes []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultOperatorConfig returns default operator middleware configuration
func DefaultOperatorConfig() OperatorConfig {
	return OperatorConfig{
		Required:  true,
		SkipPaths: []string{"/health", "/healthz", "/ready", "/api/v1/ping", "/api/v1/system/ping", "/api/v1/system/info"},
	}
}

// OperatorContext extracts the acting operator and their grants from request
// headers. The identity gateway in front of this service authenticates the
// caller and forwards X-Operator-ID and X-Operator-Grants; this middleware
// only parses them into a capability for the application layer.
func OperatorContext() gin.HandlerFunc {
	return OperatorContextWithConfig(DefaultOperatorConfig())
}

// OperatorContextWithConfig returns operator middleware with custom configuration
func OperatorContextWithConfig(cfg OperatorConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		operatorID := c.GetHeader(OperatorHeaderKey)
		if operatorID == "" {
			if cfg.Required {
				respondOperatorUnauthorized(c, "Operator identification required")
				return
			}
			c.Next()
			return
		}

		parsed, err := uuid.Parse(operatorID)
		if err != nil {
			respondOperatorUnauthorized(c, "Invalid operator ID format")
			return
		}

		grants := parseGrants(c.GetHeader(OperatorGrantsHeader))
		c.Set(OperatorIDKey, parsed)
		c.Set(OperatorGrantsKey, grants)

		if cfg.Logger != nil {
			cfg.Logger.Debug("Operator identified",
				zap.String("operator_id", parsed.String()),
				zap.Strings("grants", grants),
			)
		}

		c.Next()
	}
}

// parseGrants splits a comma-separated grants header into normalized names
func parseGrants(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	grants := make([]string, 0, len(parts))
	for _, part := range parts {
		grant := strings.ToLower(strings.TrimSpace(part))
		if grant != "" {
			grants = append(grants, grant)
		}
	}
	return grants
}

// GetOperatorUUID retrieves the operator ID from gin.Context.
// Returns uuid.Nil when no operator was identified.
func GetOperatorUUID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(OperatorIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetOperatorGrants retrieves the grant names from gin.Context
func GetOperatorGrants(c *gin.Context) []string {
	if v, exists := c.Get(OperatorGrantsKey); exists {
		if grants, ok := v.([]string); ok {
			return grants
		}
	}
	return nil
}

// GetCapability builds the ledger capability for the current request from the
// operator context. An unidentified operator yields a capability with no
// grants; application services reject it on guarded operations.
func GetCapability(c *gin.Context) ledgerapp.Capability {
	cap := ledgerapp.Capability{OperatorID: GetOperatorUUID(c)}
	for _, grant := range GetOperatorGrants(c) {
		switch grant {
		case GrantApprovePayments:
			cap.ApprovePayments = true
		case GrantManageLedger:
			cap.ManageLedger = true
		}
	}
	return cap
}

// HasGrant reports whether the current operator carries the named grant
func HasGrant(c *gin.Context, grant string) bool {
	for _, g := range GetOperatorGrants(c) {
		if g == grant {
			return true
		}
	}
	return false
}

// RequireGrant creates middleware that rejects requests whose operator lacks
// the named grant. Application services re-check capabilities; this guard
// exists so denied requests never reach request parsing.
func RequireGrant(grant string) gin.HandlerFunc {
	return RequireGrantWithLogger(grant, nil)
}

// RequireGrantWithLogger creates grant middleware that logs denials
func RequireGrantWithLogger(grant string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasGrant(c, grant) {
			if logger != nil {
				logger.Warn("Grant denied",
					zap.String("operator_id", GetOperatorUUID(c).String()),
					zap.String("required_grant", grant),
					zap.Strings("operator_grants", GetOperatorGrants(c)),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_FORBIDDEN",
					"message": "Access denied: operator lacks required grant",
				},
			})
			return
		}
		c.Next()
	}
}

// respondOperatorUnauthorized sends an unauthorized response
func respondOperatorUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_UNAUTHORIZED",
			"message": message,
		},
	})
}
