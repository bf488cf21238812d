package domain

import "time"

// PublishRequest is the payload handed to the publish collaborator.
type PublishRequest struct {
	Caption      string     `json:"caption"`
	Media        []Media    `json:"media"`
	Platforms    []Platform `json:"platforms"`
	// ScheduleTime delegates timing to the backend. NewPublishRequest
	// leaves it nil: posts are published when due, not pre-registered.
	ScheduleTime *time.Time `json:"scheduleTime,omitempty"`
}

type PublishReceipt struct {
	Message string `json:"message"`
}

func NewPublishRequest(p Post) PublishRequest {
	return PublishRequest{
		Caption:   p.Content,
		Media:     p.Media,
		Platforms: p.Platforms,
	}
}

// Prompt holds the parameters of a content generation request.
type Prompt struct {
	Text string `json:"prompt" validate:"required,max=4000"`
	Tone string `json:"tone" validate:"omitempty,max=64"`
}
