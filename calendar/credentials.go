package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// TokenSourceFromFiles builds a self-refreshing token source from an OAuth
// client secret file plus the user token file produced by the one-time
// consent flow.
func TokenSourceFromFiles(ctx context.Context, credentialsFile, tokenFile string, scopes ...string) (oauth2.TokenSource, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client secret: %w", err)
	}
	conf, err := google.ConfigFromJSON(raw, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client secret: %w", err)
	}

	tokRaw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokRaw, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	return conf.TokenSource(ctx, &tok), nil
}
