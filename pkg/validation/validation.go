package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidateTenantID ensures the tenant key is a sane opaque identifier.
func ValidateTenantID(tenantID string) error {
	trimmed := strings.TrimSpace(tenantID)
	if trimmed == "" {
		return errors.New("tenant_id is required")
	}
	if !tenantPattern.MatchString(trimmed) {
		return errors.New("tenant_id must be alphanumeric with . _ - and at most 64 characters")
	}
	return nil
}

// ValidateChatID ensures a chat identifier is provided.
func ValidateChatID(chatID string) error {
	if strings.TrimSpace(chatID) == "" {
		return errors.New("chat_id is required")
	}
	return nil
}

// ValidateMessageBody ensures an outbound text message has content.
func ValidateMessageBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return errors.New("message body is required")
	}
	return nil
}

// ValidateReactionEmoji enforces the single-emoji rule for reactions.
// An empty string is valid and removes the reaction.
func ValidateReactionEmoji(emoji string) error {
	if emoji == "" {
		return nil
	}
	if !gomoji.ContainsEmoji(emoji) && uniseg.GraphemeClusterCount(emoji) != 1 {
		return errors.New("reaction must contain exactly one emoji character")
	}
	return nil
}
