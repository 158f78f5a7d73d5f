package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seaglass/answers-fulfillment/answers"
	"github.com/seaglass/answers-fulfillment/appconfig"
	"github.com/seaglass/answers-fulfillment/selector"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := appconfig.LoadDotEnv(); err != nil {
		log.Fatalln("Failed to load .env:", err)
	}

	cfg, err := appconfig.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalln("Failed to load configuration:", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalln("Failed to create logger:", err)
	}
	defer logger.Sync()

	service := NewAnswersService(
		answers.NewClient(cfg.Answers),
		selector.New(cfg.Selector),
		logger,
	)
	app := newApp(cfg, service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fulfillment server starting",
			zap.String("addr", cfg.Addr()),
			zap.Bool("products", *cfg.Selector.Products),
		)
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newApp(cfg *appconfig.AppConfig, service *AnswersService, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestLogger(logger))

	fulfillment := NewFulfillmentHandler(service, cfg, logger)
	voice := NewVoiceHandler(service, cfg, logger)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/fulfillment", fulfillment.Handle)
	app.Post(voicePath, voice.Greet)
	app.Post(voiceAnswerPath, voice.Answer)

	return app
}

func newLogger(cfg appconfig.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		)
		return err
	}
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		} else {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": errorMessage(code, err)})
	}
}

func errorMessage(code int, err error) string {
	if code >= fiber.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
