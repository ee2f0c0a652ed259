package backend

import (
	"context"
	"fmt"

	"github.com/newthinker/pulse/internal/core"
	"go.uber.org/zap"
)

// CSRFToken returns the anti-forgery token for state-changing requests.
// A configured static token wins. Otherwise the token is read from the
// CSRF cookie; if the jar does not hold one yet, a single GET of the
// configured path is made so the backend can set it.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	if c.cfg.CSRFToken != "" {
		return c.cfg.CSRFToken, nil
	}
	if token := c.cookie(c.cfg.CSRFCookie); token != "" {
		return token, nil
	}

	resp, err := c.http.R().SetContext(ctx).Get(c.cfg.CSRFPath)
	if err != nil {
		return "", core.WrapError(core.ErrBackendFailed, fmt.Errorf("fetching csrf cookie: %w", err))
	}

	token := c.cookie(c.cfg.CSRFCookie)
	if token == "" {
		// The backend will reject the POST; let it say so with its own status.
		c.logger.Warn("backend did not set csrf cookie",
			zap.String("cookie", c.cfg.CSRFCookie),
			zap.Int("status", resp.StatusCode()),
		)
	}
	return token, nil
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}
