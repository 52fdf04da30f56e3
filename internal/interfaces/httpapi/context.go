package httpapi

import "context"

type contextKey string

const adminSecretContextKey contextKey = "admin_secret"

func withAdminSecret(ctx context.Context, secret string) context.Context {
	return context.WithValue(ctx, adminSecretContextKey, secret)
}

func adminSecretFromContext(ctx context.Context) (string, bool) {
	secret, ok := ctx.Value(adminSecretContextKey).(string)
	return secret, ok && secret != ""
}
