package service

import (
	"context"
	"encoding/json"

	"screening-onboarding-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// CorpusBuildTopic carries corpus build requests to the consumer.
const CorpusBuildTopic = "corpus.build"

type IPublisherService interface {
	PublishCorpusBuild(ctx context.Context, msg dto.PublishCorpusBuildMessage) error
}

type publisherService struct {
	publisher message.Publisher
	topicName string
}

func NewPublisherService(publisher message.Publisher, topicName string) IPublisherService {
	return &publisherService{
		publisher: publisher,
		topicName: topicName,
	}
}

func (p *publisherService) PublishCorpusBuild(ctx context.Context, msg dto.PublishCorpusBuildMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	m := message.NewMessage(watermill.NewUUID(), payload)
	m.SetContext(ctx)
	return p.publisher.Publish(p.topicName, m)
}
