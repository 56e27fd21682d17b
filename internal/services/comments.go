package services

import (
	"context"
	"errors"
	"fmt"

	"taskclient/internal/httpclient"
	"taskclient/internal/models"
)

// ErrNotAuthor is the client-side guard for comment deletion; the server
// performs the authoritative check.
var ErrNotAuthor = errors.New("comment can only be deleted by its author")

type CommentService struct {
	api *httpclient.Client
}

func NewCommentService(api *httpclient.Client) *CommentService {
	return &CommentService{api: api}
}

func (s *CommentService) Create(ctx context.Context, taskID int64, content string) (*models.Comment, error) {
	var comment models.Comment
	req := models.CommentCreate{TaskID: taskID, Content: content}
	if err := s.api.Post(ctx, "/api/comments", req, &comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &comment, nil
}

func (s *CommentService) ListByTask(ctx context.Context, taskID int64) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.api.Get(ctx, fmt.Sprintf("/api/comments/task/%d", taskID), nil, &comments); err != nil {
		return nil, fmt.Errorf("list comments for task %d: %w", taskID, err)
	}
	return comments, nil
}

func (s *CommentService) Update(ctx context.Context, id int64, content string) (*models.Comment, error) {
	var comment models.Comment
	body := map[string]string{"content": content}
	if err := s.api.Put(ctx, fmt.Sprintf("/api/comments/%d", id), body, &comment); err != nil {
		return nil, fmt.Errorf("update comment %d: %w", id, err)
	}
	return &comment, nil
}

// Delete removes a comment on behalf of actor. Non-authors are rejected
// locally before any request is made.
func (s *CommentService) Delete(ctx context.Context, comment models.Comment, actor *models.User) error {
	if actor == nil || actor.ID != comment.AuthorID {
		return ErrNotAuthor
	}
	if err := s.api.Delete(ctx, fmt.Sprintf("/api/comments/%d", comment.ID)); err != nil {
		return fmt.Errorf("delete comment %d: %w", comment.ID, err)
	}
	return nil
}
