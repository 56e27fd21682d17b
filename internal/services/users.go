package services

import (
	"context"
	"fmt"

	"taskclient/internal/httpclient"
	"taskclient/internal/models"
)

type UserService struct {
	api *httpclient.Client
}

func NewUserService(api *httpclient.Client) *UserService {
	return &UserService{api: api}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.api.Get(ctx, "/api/users", nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
