package google

import (
	"context"
	"fmt"
	"net/http"

	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// UserInfo identifies the authenticated Google user.
type UserInfo struct {
	ID     string
	Email  string
	Name   string
	Domain string // hosted Workspace domain, empty for consumer accounts
}

// GetUserInfo resolves the identity behind an authenticated HTTP client.
func GetUserInfo(ctx context.Context, client *http.Client) (*UserInfo, error) {
	svc, err := oauth2api.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	return &UserInfo{
		ID:     info.Id,
		Email:  info.Email,
		Name:   info.Name,
		Domain: info.Hd,
	}, nil
}
