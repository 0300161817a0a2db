package types

import (
	"context"
	"fmt"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxAccountID ContextKey = "ctx_account_id"
	CtxAdmin     ContextKey = "ctx_admin"
)

const (
	HeaderRequestID = "X-Request-ID"
)

func GetAccountID(ctx context.Context) string {
	if accountID, ok := ctx.Value(CtxAccountID).(string); ok {
		return accountID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// IsAdmin reports whether the request was authenticated with an admin role
func IsAdmin(ctx context.Context) bool {
	if admin, ok := ctx.Value(CtxAdmin).(bool); ok {
		return admin
	}
	return false
}

// SetAccountID sets the account ID in the context
func SetAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, CtxAccountID, accountID)
}

// SetAdmin marks the context as carrying an admin-authenticated request
func SetAdmin(ctx context.Context, admin bool) context.Context {
	return context.WithValue(ctx, CtxAdmin, admin)
}

// ValidateAccountContext validates that the account context is present
func ValidateAccountContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context is nil")
	}

	if GetAccountID(ctx) == "" {
		return fmt.Errorf("no account context found in context")
	}

	return nil
}
