package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"github.com/NasaVasa/cratedigger/internal/usecase"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type searchService interface {
	AddSearch(ctx context.Context, recipientID int64, query string) (*domain.SavedQuery, error)
	ListSearches(ctx context.Context, recipientID int64) ([]domain.SavedQuery, error)
	RemoveSearch(ctx context.Context, recipientID int64, queryID uint) error
	SetThreshold(ctx context.Context, recipientID int64, minDealScore float64) (int64, error)
	PendingDeals(ctx context.Context, recipientID int64, limit int) ([]domain.Listing, error)
}

type releaseIngester interface {
	Ingest(ctx context.Context, releaseID int64) (bool, error)
}

type Handlers struct {
	searches searchService
	catalog  releaseIngester
	logger   *zap.Logger
}

func NewHandlers(searches searchService, catalog releaseIngester, logger *zap.Logger) *Handlers {
	return &Handlers{searches: searches, catalog: catalog, logger: logger}
}

func (h *Handlers) HandleUpdate(ctx context.Context, api sender, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}
	if update.Message.IsCommand() {
		h.handleCommand(ctx, api, update)
	}
}

func (h *Handlers) handleCommand(ctx context.Context, api sender, update tgbotapi.Update) {
	command := update.Message.Command()
	args := update.Message.CommandArguments()
	chatID := update.Message.Chat.ID

	logger := h.logger.With(zap.Int64("chat_id", chatID), zap.String("command", command))
	logger.Info("telegram command received", zap.String("args", args))

	switch command {
	case "start":
		h.reply(api, chatID, StartText+HelpText)
	case "help":
		h.reply(api, chatID, HelpText)
	case "add_search":
		query, err := ParseQuery(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /add_search <query>")
			return
		}
		saved, err := h.searches.AddSearch(ctx, chatID, query)
		if err != nil {
			logger.Warn("add_search failed", zap.Error(err))
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		logger.Info("add_search complete", zap.Uint("query_id", saved.ID))
		h.reply(api, chatID, fmt.Sprintf("Search added (ID: %d): %s", saved.ID, saved.Query))
	case "my_searches":
		searches, err := h.searches.ListSearches(ctx, chatID)
		if err != nil {
			logger.Warn("my_searches failed", zap.Error(err))
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		if len(searches) == 0 {
			h.reply(api, chatID, "No saved searches. Use /add_search to create one.")
			return
		}
		h.reply(api, chatID, formatSearches(searches))
	case "remove_search":
		queryID, err := ParseSearchID(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /remove_search <id>")
			return
		}
		if err := h.searches.RemoveSearch(ctx, chatID, queryID); err != nil {
			logger.Warn("remove_search failed", zap.Uint("query_id", queryID), zap.Error(err))
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		h.reply(api, chatID, fmt.Sprintf("Search %d removed.", queryID))
	case "set_threshold":
		value, err := ParseThreshold(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /set_threshold <value>")
			return
		}
		changed, err := h.searches.SetThreshold(ctx, chatID, value)
		if err != nil {
			logger.Warn("set_threshold failed", zap.Float64("value", value), zap.Error(err))
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		h.reply(api, chatID, fmt.Sprintf("Threshold set to %.2f for %d of your searches.", value, changed))
	case "add_release":
		releaseID, err := ParseReleaseID(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /add_release <discogs_release_id>")
			return
		}
		found, err := h.catalog.Ingest(ctx, releaseID)
		if err != nil {
			logger.Warn("add_release failed", zap.Int64("release_id", releaseID), zap.Error(err))
			h.reply(api, chatID, "Could not fetch that release right now. Please try again later.")
			return
		}
		if !found {
			h.reply(api, chatID, fmt.Sprintf("Release %d not found on Discogs.", releaseID))
			return
		}
		h.reply(api, chatID, fmt.Sprintf("Release %d added to the catalog.", releaseID))
	case "pending":
		listings, err := h.searches.PendingDeals(ctx, chatID, usecase.DefaultPendingLimit)
		if err != nil {
			logger.Warn("pending failed", zap.Error(err))
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		if len(listings) == 0 {
			h.reply(api, chatID, "No pending deals.")
			return
		}
		h.reply(api, chatID, formatPending(listings))
	default:
		logger.Warn("unknown command")
		h.reply(api, chatID, "Unknown command.\n\n"+HelpText)
	}
}

func (h *Handlers) errorMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrEmptyQuery):
		return "Usage: /add_search <query>"
	case errors.Is(err, usecase.ErrInvalidThreshold):
		return "Threshold must be between 0.0 and 1.0."
	case errors.Is(err, usecase.ErrSearchNotFound):
		return "Search not found."
	case errors.Is(err, usecase.ErrNoSearches):
		return "No saved searches. Use /add_search to create one."
	}

	h.logger.Warn("unhandled error", zap.Error(err))
	return "Something went wrong. Please try again."
}

func (h *Handlers) reply(api sender, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := api.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
