package lookup

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

func readLimited(resp *http.Response, limit int64) (string, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// shareDeadline gives the i-th of n remaining attempts an equal share of the
// time left before ctx's deadline.
func shareDeadline(ctx context.Context, remaining int) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok || remaining <= 1 {
		return context.WithCancel(ctx)
	}
	share := time.Until(deadline) / time.Duration(remaining)
	return context.WithTimeout(ctx, share)
}
