package main

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"

	"github.com/seaglass/answers-fulfillment/appconfig"
	"github.com/seaglass/answers-fulfillment/selector"
)

const (
	voicePath       = "/voice"
	voiceAnswerPath = "/voice/answer"
	followUpPrompt  = "Anything else?"
)

// VoiceHandler answers phone callers through Twilio speech recognition.
type VoiceHandler struct {
	service *AnswersService
	cfg     *appconfig.AppConfig
	logger  *zap.Logger
}

func NewVoiceHandler(service *AnswersService, cfg *appconfig.AppConfig, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{service: service, cfg: cfg, logger: logger}
}

// Greet starts a call by asking the caller for a question.
func (h *VoiceHandler) Greet(c *fiber.Ctx) error {
	return voiceResponse(c, gatherSpeech(h.cfg.Messages.VoiceGreeting))
}

// Answer speaks the answer to the recognized speech and listens again.
func (h *VoiceHandler) Answer(c *fiber.Ctx) error {
	speech := strings.TrimSpace(c.FormValue("SpeechResult"))
	if speech == "" {
		h.logger.Info("no speech recognized", zap.String("call_sid", c.FormValue("CallSid")))
		return voiceResponse(c,
			&twiml.VoiceSay{Message: h.cfg.Messages.Fallback},
			&twiml.VoiceRedirect{Url: voicePath},
		)
	}

	desc := h.service.Answer(c.UserContext(), speech)
	return voiceResponse(c,
		&twiml.VoiceSay{Message: spoken(desc, h.cfg.Messages.Fallback)},
		gatherSpeech(followUpPrompt),
	)
}

func gatherSpeech(prompt string) *twiml.VoiceGather {
	return &twiml.VoiceGather{
		Input:         "speech",
		Action:        voiceAnswerPath,
		Method:        fiber.MethodPost,
		SpeechTimeout: "auto",
		InnerElements: []twiml.Element{&twiml.VoiceSay{Message: prompt}},
	}
}

// spoken flattens a descriptor into a sentence. Images and chips have no
// spoken form and are skipped.
func spoken(desc selector.Descriptor, fallback string) string {
	switch d := desc.(type) {
	case selector.PlainText:
		if s := strings.TrimSpace(string(d)); s != "" {
			return s
		}
	case selector.RichCard:
		parts := make([]string, 0, len(d))
		for _, b := range d {
			info, ok := b.(selector.Info)
			if !ok {
				continue
			}
			for _, s := range []string{info.Title, info.Subtitle} {
				if s = strings.TrimSpace(s); s != "" {
					parts = append(parts, strings.TrimRight(s, ".")+".")
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return fallback
}

func voiceResponse(c *fiber.Ctx, verbs ...twiml.Element) error {
	c.Set("Content-type", "application/xml; charset=utf-8")

	xml, err := twiml.Voice(verbs)
	if err != nil {
		return fmt.Errorf("failed to create voice response: %w", err)
	}

	return c.SendString(xml)
}
