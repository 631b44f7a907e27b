package config

import (
	"context"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// accessSecret reads a secret version, e.g.
// projects/p/secrets/openai-key/versions/latest.
func accessSecret(ctx context.Context, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}
