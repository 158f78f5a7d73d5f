package main

import (
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/seaglass/answers-fulfillment/appconfig"
	"github.com/seaglass/answers-fulfillment/selector"
)

var webhookUnmarshal = protojson.UnmarshalOptions{DiscardUnknown: true}

// FulfillmentHandler serves Dialogflow ES fulfillment webhooks.
type FulfillmentHandler struct {
	service *AnswersService
	cfg     *appconfig.AppConfig
	logger  *zap.Logger
}

func NewFulfillmentHandler(service *AnswersService, cfg *appconfig.AppConfig, logger *zap.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{service: service, cfg: cfg, logger: logger}
}

func (h *FulfillmentHandler) Handle(c *fiber.Ctx) error {
	h.logger.Debug("dialogflow request",
		zap.Any("headers", c.GetReqHeaders()),
		zap.ByteString("body", c.Body()),
	)

	req := &dialogflowpb.WebhookRequest{}
	if err := webhookUnmarshal.Unmarshal(c.Body(), req); err != nil {
		h.logger.Warn("failed to decode webhook request", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "invalid webhook request")
	}

	intent := req.GetQueryResult().GetIntent().GetDisplayName()
	if !h.cfg.HandlesIntent(intent) {
		h.logger.Info("intent not handled, deferring to agent", zap.String("intent", intent))
		return sendWebhookResponse(c, &dialogflowpb.WebhookResponse{})
	}

	desc := h.service.Answer(c.UserContext(), req.GetQueryResult().GetQueryText())

	resp, err := h.render(desc)
	if err != nil {
		h.logger.Error("failed to render rich content", zap.Error(err))
		resp = textResponse(h.cfg.Messages.Fallback)
	}
	return sendWebhookResponse(c, resp)
}

func (h *FulfillmentHandler) render(desc selector.Descriptor) (*dialogflowpb.WebhookResponse, error) {
	switch d := desc.(type) {
	case selector.PlainText:
		return textResponse(string(d)), nil
	case selector.RichCard:
		payload, err := richContentPayload(d)
		if err != nil {
			return nil, err
		}
		return &dialogflowpb.WebhookResponse{
			FulfillmentMessages: []*dialogflowpb.Intent_Message{
				{Message: &dialogflowpb.Intent_Message_Payload{Payload: payload}},
			},
		}, nil
	}
	return textResponse(h.cfg.Messages.Fallback), nil
}

func textResponse(text string) *dialogflowpb.WebhookResponse {
	return &dialogflowpb.WebhookResponse{
		FulfillmentText: text,
		FulfillmentMessages: []*dialogflowpb.Intent_Message{
			{Message: &dialogflowpb.Intent_Message_Text_{
				Text: &dialogflowpb.Intent_Message_Text{Text: []string{text}},
			}},
		},
	}
}

// richContentPayload builds a Dialogflow Messenger custom payload holding
// the card as a single rich content group.
func richContentPayload(card selector.RichCard) (*structpb.Struct, error) {
	blocks := make([]any, 0, len(card))
	for _, b := range card {
		switch b := b.(type) {
		case selector.Info:
			blocks = append(blocks, map[string]any{
				"type":     "info",
				"title":    b.Title,
				"subtitle": b.Subtitle,
			})
		case selector.Chips:
			options := make([]any, 0, len(b.Options))
			for _, o := range b.Options {
				options = append(options, map[string]any{
					"text": o.Text,
					"link": o.Link,
				})
			}
			blocks = append(blocks, map[string]any{
				"type":    "chips",
				"options": options,
			})
		case selector.Image:
			blocks = append(blocks, map[string]any{
				"type":              "image",
				"rawUrl":            b.URL,
				"accessibilityText": b.AltText,
			})
		}
	}
	return structpb.NewStruct(map[string]any{
		"richContent": []any{blocks},
	})
}

func sendWebhookResponse(c *fiber.Ctx, resp *dialogflowpb.WebhookResponse) error {
	body, err := protojson.Marshal(resp)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to encode webhook response")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
