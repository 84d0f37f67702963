package service

import (
	"context"
	"fmt"

	"reactor/backend/internal/models"
)

// MediaGroupTracker remembers albums already seen.
type MediaGroupTracker interface {
	MarkFirst(ctx context.Context, groupID string) (bool, error)
}

// Content lists what an inbound message carries.
type Content struct {
	// Kinds holds the content kinds present, e.g. text or photo
	Kinds        []models.MessageKind `json:"kinds"`
	HasURL       bool                 `json:"has_url"`
	MediaGroupID string               `json:"media_group_id,omitempty"`
}

// Classifier decides the kind of inbound messages
type Classifier struct {
	groups MediaGroupTracker
}

// NewClassifier creates a classifier; albums are deduplicated through groups
func NewClassifier(groups MediaGroupTracker) *Classifier {
	return &Classifier{groups: groups}
}

// Classify returns the kind of a message. Only the first message of an album
// counts as the album; the rest classify as KindNone.
func (c *Classifier) Classify(ctx context.Context, content Content) (models.MessageKind, error) {
	if content.MediaGroupID != "" {
		first, err := c.groups.MarkFirst(ctx, content.MediaGroupID)
		if err != nil {
			return models.KindNone, fmt.Errorf("mark media group: %w", err)
		}
		if first {
			return models.KindAlbum, nil
		}
		return models.KindNone, nil
	}

	return kindOf(content), nil
}

// kindOf classifies a message that is not part of an album
func kindOf(content Content) models.MessageKind {
	if content.HasURL {
		return models.KindLink
	}

	present := make(map[models.MessageKind]bool, len(content.Kinds))
	for _, k := range content.Kinds {
		present[k] = true
	}
	for _, k := range models.MessageKinds {
		if present[k] {
			return k
		}
	}
	return models.KindNone
}
