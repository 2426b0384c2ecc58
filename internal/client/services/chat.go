package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/studira/studira/internal/client/api"
	"github.com/studira/studira/internal/client/models"
	"github.com/studira/studira/internal/logging"
	"github.com/studira/studira/internal/validatex"
)

// ChatService wraps the chat endpoints with typed requests and responses.
// It holds no state; chat data lives on the server and session state in
// the AuthManager.
type ChatService struct {
	api *api.Client
	log logging.Logger
}

func NewChatService(apiClient *api.Client, log logging.Logger) *ChatService {
	return &ChatService{api: apiClient, log: log}
}

// CreateChatRequest opens a new conversation. Title is usually produced by
// models.GenerateTitle from the first message.
type CreateChatRequest struct {
	Title          string      `json:"title" validate:"required"`
	Mode           models.Mode `json:"mode" validate:"required"`
	Subject        string      `json:"subject,omitempty"`
	Lessons        []string    `json:"lessons,omitempty"`
	InitialMessage string      `json:"initialMessage,omitempty"`
}

type chatResponse struct {
	Chat *models.Chat `json:"chat"`
}

type chatListResponse struct {
	Chats      []models.Chat      `json:"chats"`
	Pagination *models.Pagination `json:"pagination"`
}

type messageListResponse struct {
	Messages   []models.Message   `json:"messages"`
	Pagination *models.Pagination `json:"pagination"`
}

type sendMessageResponse struct {
	UserMessage *models.Message `json:"userMessage"`
	BotMessage  *models.Message `json:"botMessage"`
}

func (s *ChatService) Create(ctx context.Context, req CreateChatRequest) (*models.Chat, error) {
	if err := validatex.Struct(&req); err != nil {
		return nil, err
	}
	var resp chatResponse
	if err := s.api.Post(ctx, "/chats", req, &resp); err != nil {
		return nil, err
	}
	return resp.Chat, nil
}

// List returns one page of the user's chats. page and limit values below 1
// are not sent, leaving the server defaults in effect.
func (s *ChatService) List(ctx context.Context, page, limit int, archived bool) ([]models.Chat, *models.Pagination, error) {
	params := map[string]string{
		"archived": strconv.FormatBool(archived),
	}
	if page > 0 {
		params["page"] = strconv.Itoa(page)
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var resp chatListResponse
	if err := s.api.Get(ctx, "/chats", params, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Chats, resp.Pagination, nil
}

func (s *ChatService) Get(ctx context.Context, id string) (*models.Chat, error) {
	var resp chatResponse
	if err := s.api.Get(ctx, "/chats/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chat, nil
}

// Messages returns one page of a chat's messages.
func (s *ChatService) Messages(ctx context.Context, chatID string, page, limit int) ([]models.Message, *models.Pagination, error) {
	params := map[string]string{}
	if page > 0 {
		params["page"] = strconv.Itoa(page)
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var resp messageListResponse
	if err := s.api.Get(ctx, "/chats/"+url.PathEscape(chatID)+"/messages", params, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Messages, resp.Pagination, nil
}

type sendMessageRequest struct {
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// Send posts the student's message and returns both the stored user message
// and the tutor's reply.
func (s *ChatService) Send(ctx context.Context, chatID, content string, attachments []models.Attachment) (*models.Message, *models.Message, error) {
	req := sendMessageRequest{Content: content, Attachments: attachments}

	var resp sendMessageResponse
	if err := s.api.Post(ctx, "/chats/"+url.PathEscape(chatID)+"/messages", req, &resp); err != nil {
		return nil, nil, err
	}
	return resp.UserMessage, resp.BotMessage, nil
}

type chatUpdateRequest struct {
	Title      *string `json:"title,omitempty"`
	IsArchived *bool   `json:"isArchived,omitempty"`
}

func (s *ChatService) Rename(ctx context.Context, id, title string) (*models.Chat, error) {
	return s.update(ctx, id, chatUpdateRequest{Title: &title})
}

func (s *ChatService) SetArchived(ctx context.Context, id string, archived bool) (*models.Chat, error) {
	return s.update(ctx, id, chatUpdateRequest{IsArchived: &archived})
}

func (s *ChatService) update(ctx context.Context, id string, req chatUpdateRequest) (*models.Chat, error) {
	var resp chatResponse
	if err := s.api.Put(ctx, "/chats/"+url.PathEscape(id), req, &resp); err != nil {
		return nil, err
	}
	return resp.Chat, nil
}

// Delete removes a chat permanently and returns the server's confirmation
// message.
func (s *ChatService) Delete(ctx context.Context, id string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := s.api.Delete(ctx, "/chats/"+url.PathEscape(id), &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
