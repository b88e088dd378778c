package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/pgm-labs/pgm-backend/config"
)

// NewApp initializes the Firebase Admin SDK. Credentials come from an inline
// service-account JSON blob, a credentials file, or application default
// credentials, in that order of preference.
func NewApp(ctx context.Context, cfg *config.FirebaseConfig) (*firebase.App, error) {
	conf := &firebase.Config{ProjectID: cfg.ProjectID}

	var opts []option.ClientOption
	switch {
	case cfg.ServiceAccountJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	case cfg.CredentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}
