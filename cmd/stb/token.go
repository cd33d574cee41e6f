package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stb/internal/auth"
)

var (
	tokenName        string
	tokenScopes      []string
	tokenExpires     string
	tokenRateLimit   int
	tokenShowRevoked bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens for the HTTP server",
	Long: `Create, list, and revoke API tokens for authenticating with the STB
HTTP API server.

Tokens are stored in the workspace database (.stb/stb.db) and take
effect when the server runs with server.authEnabled set to true.

Examples:
  stb token create --name "Dashboard" --scopes read
  stb token create --name "CI Analyzer" --scopes write --expires 90d
  stb token list
  stb token revoke stb_key_abc123`,
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new API token",
	Long: `Create a new API token with specified scopes.

Scopes:
  read   - Can read analysis history (GET requests)
  write  - Can submit source for analysis (POST requests)
  admin  - Full access including token management

Examples:
  stb token create --name "Dashboard" --scopes read
  stb token create --name "CI Analyzer" --scopes write --expires 90d
  stb token create --name "Ops" --scopes admin --rate-limit 120`,
	Run: runTokenCreate,
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all API tokens",
	Long: `List all API tokens with their scopes, expiry, and last used time.

Examples:
  stb token list
  stb token list --show-revoked
  stb token list --format=json`,
	Run: runTokenList,
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API token",
	Long: `Revoke an API token, immediately invalidating it.

Examples:
  stb token revoke stb_key_abc123`,
	Args: cobra.ExactArgs(1),
	Run:  runTokenRevoke,
}

func init() {
	// Create flags
	tokenCreateCmd.Flags().StringVar(&tokenName, "name", "", "Token name (required)")
	tokenCreateCmd.Flags().StringSliceVar(&tokenScopes, "scopes", nil, "Scopes: read, write, admin (required)")
	tokenCreateCmd.Flags().StringVar(&tokenExpires, "expires", "", "Expiration (e.g., 30d, 1h, 2026-12-31)")
	tokenCreateCmd.Flags().IntVar(&tokenRateLimit, "rate-limit", 0, "Rate limit (requests per minute, 0=default)")
	_ = tokenCreateCmd.MarkFlagRequired("name")
	_ = tokenCreateCmd.MarkFlagRequired("scopes")

	// List flags
	tokenListCmd.Flags().BoolVar(&tokenShowRevoked, "show-revoked", false, "Include revoked tokens")

	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenCreate(cmd *cobra.Command, args []string) {
	logger := newLogger(formatFlag)
	db, manager := mustGetAuthManager(mustGetWorkspaceRoot(), logger)
	defer db.Close()

	// Parse scopes
	var scopes []auth.Scope
	for _, s := range tokenScopes {
		scope := auth.Scope(strings.ToLower(s))
		if !scope.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: invalid scope '%s' (valid: %s)\n", s, formatScopes(auth.ValidScopes()))
			os.Exit(1)
		}
		scopes = append(scopes, scope)
	}

	// Parse expiration
	var expiresAt *time.Time
	if tokenExpires != "" {
		t, err := parseExpiration(tokenExpires)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid expiration '%s': %v\n", tokenExpires, err)
			os.Exit(1)
		}
		expiresAt = &t
	}

	// Parse rate limit
	var rateLimit *int
	if tokenRateLimit > 0 {
		rateLimit = &tokenRateLimit
	}

	opts := auth.CreateKeyOptions{
		Name:      tokenName,
		Scopes:    scopes,
		RateLimit: rateLimit,
		ExpiresAt: expiresAt,
		CreatedBy: os.Getenv("USER"),
	}

	key, rawToken, err := manager.CreateKey(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating token: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "human" {
		fmt.Println("API Token Created:")
		fmt.Println()
		fmt.Printf("  ID:      %s\n", key.ID)
		fmt.Printf("  Name:    %s\n", key.Name)
		fmt.Printf("  Scopes:  %s\n", formatScopes(key.Scopes))
		if key.RateLimit != nil {
			fmt.Printf("  Rate:    %d/min\n", *key.RateLimit)
		}
		if key.ExpiresAt != nil {
			fmt.Printf("  Expires: %s\n", key.ExpiresAt.Format("2006-01-02"))
		}
		fmt.Printf("  Token:   %s\n", rawToken)
		fmt.Println()
		fmt.Println("  IMPORTANT: Store this token securely. It will not be shown again.")
	} else {
		resp := map[string]interface{}{
			"key_id":     key.ID,
			"name":       key.Name,
			"scopes":     key.Scopes,
			"token":      rawToken,
			"created_at": key.CreatedAt.Format(time.RFC3339),
		}
		if key.RateLimit != nil {
			resp["rate_limit"] = *key.RateLimit
		}
		if key.ExpiresAt != nil {
			resp["expires_at"] = key.ExpiresAt.Format(time.RFC3339)
		}
		printJSON(resp)
	}
}

func runTokenList(cmd *cobra.Command, args []string) {
	logger := newLogger(formatFlag)
	db, manager := mustGetAuthManager(mustGetWorkspaceRoot(), logger)
	defer db.Close()

	keys, err := manager.ListKeys(tokenShowRevoked)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing tokens: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "human" {
		if len(keys) == 0 {
			fmt.Println("No API tokens found.")
			return
		}

		fmt.Println("API Tokens:")
		fmt.Println()
		fmt.Printf("  %-26s %-16s %-12s %-12s %-8s %-12s\n",
			"ID", "NAME", "SCOPES", "EXPIRES", "RATE", "LAST USED")
		fmt.Printf("  %-26s %-16s %-12s %-12s %-8s %-12s\n",
			strings.Repeat("-", 26), strings.Repeat("-", 16), strings.Repeat("-", 12),
			strings.Repeat("-", 12), strings.Repeat("-", 8), strings.Repeat("-", 12))

		for _, key := range keys {
			name := key.Name
			if len(name) > 16 {
				name = name[:13] + "..."
			}

			expires := "never"
			if key.ExpiresAt != nil {
				expires = key.ExpiresAt.Format("2006-01-02")
			}

			rate := "-"
			if key.RateLimit != nil {
				rate = fmt.Sprintf("%d/m", *key.RateLimit)
			}

			lastUsed := "never"
			if key.LastUsedAt != nil {
				lastUsed = formatTimeAgo(*key.LastUsedAt)
			}

			status := ""
			if key.Revoked {
				status = " [REVOKED]"
			} else if key.IsExpired() {
				status = " [EXPIRED]"
			}

			fmt.Printf("  %-26s %-16s %-12s %-12s %-8s %-12s%s\n",
				key.ID, name, formatScopes(key.Scopes), expires, rate, lastUsed, status)
		}
	} else {
		printJSON(map[string]interface{}{
			"tokens": keys,
			"count":  len(keys),
		})
	}
}

func runTokenRevoke(cmd *cobra.Command, args []string) {
	logger := newLogger(formatFlag)
	db, manager := mustGetAuthManager(mustGetWorkspaceRoot(), logger)
	defer db.Close()

	keyID := args[0]

	if err := manager.RevokeKey(keyID); err != nil {
		fmt.Fprintf(os.Stderr, "Error revoking token: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "human" {
		fmt.Printf("Token %s revoked successfully.\n", keyID)
	} else {
		printJSON(map[string]interface{}{
			"revoked": keyID,
			"success": true,
		})
	}
}

// parseExpiration parses an expiration string like "30d", "1h", or "2026-12-31"
func parseExpiration(s string) (time.Time, error) {
	// Try duration format first (e.g., "30d", "1h")
	if len(s) > 1 {
		unit := s[len(s)-1]
		valueStr := s[:len(s)-1]
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err == nil {
			var d time.Duration
			switch unit {
			case 'd':
				d = time.Duration(value) * 24 * time.Hour
			case 'h':
				d = time.Duration(value) * time.Hour
			case 'm':
				d = time.Duration(value) * time.Minute
			default:
				// Fall through to date parsing
			}
			if d > 0 {
				return time.Now().Add(d), nil
			}
		}
	}

	// Try date formats
	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized format (use e.g., '30d', '1h', or '2026-12-31')")
}

// formatScopes formats scopes for display
func formatScopes(scopes []auth.Scope) string {
	var strs []string
	for _, s := range scopes {
		strs = append(strs, string(s))
	}
	return strings.Join(strs, ",")
}

// formatTimeAgo formats a time as "Xm ago", "Xh ago", etc.
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
