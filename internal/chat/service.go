package chat

import (
	"context"
	"errors"
)

var ErrNotParticipant = errors.New("user is not part of this conversation")

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) validateParticipant(ctx context.Context, userID, conversationID uint64) (*Conversation, error) {
	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.ListerID != userID && conv.DoerID != userID {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (s *Service) SendMessage(ctx context.Context, userID, conversationID uint64, content string) (*Message, error) {
	if _, err := s.validateParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	m := &Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        content,
	}
	if err := s.repo.InsertMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListMessages(ctx context.Context, userID, conversationID uint64, limit int, beforeID uint64) ([]Message, error) {
	if _, err := s.validateParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, conversationID, limit, beforeID)
}

func (s *Service) ListConversations(ctx context.Context, userID uint64, limit int) ([]Conversation, error) {
	return s.repo.ListConversations(ctx, userID, limit)
}
