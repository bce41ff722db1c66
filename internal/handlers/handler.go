package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"adforge-ai/internal/creative"
	"adforge-ai/internal/gemini"
	"adforge-ai/internal/mediagroup"
	"adforge-ai/internal/project"
	"adforge-ai/internal/session"
	"adforge-ai/internal/telegram"
)

type Options struct {
	Telegram *telegram.Client
	Creative *creative.Generator
	Projects *project.Store
	Sessions *session.Store
	Logger   *slog.Logger
}

type Handler struct {
	tg         *telegram.Client
	creative   *creative.Generator
	projects   *project.Store
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:       opts.Telegram,
		creative: opts.Creative,
		projects: opts.Projects,
		sessions: opts.Sessions,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID
	username := msg.From.UserName

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, username, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, userID, username, msg)
	}

	if msg.Text != "" {
		return h.handleText(ctx, chatID, userID, username, msg.Text)
	}

	return nil
}

// HandleMediaBatch processes a flushed photo album as one generation.
func (h *Handler) HandleMediaBatch(ctx context.Context, batch mediagroup.Batch) {
	if err := h.generateFromPhotos(ctx, batch.ChatID, batch.UserID, batch.Username, batch.Caption, batch.FileIDs); err != nil {
		h.logger.Error("media batch processing failed", "err", err)
	}
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, userID int64, username string, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return h.tg.SendText(chatID,
			"AdForge — AI advertisement studio\n\n"+
				"Send me product photo(s) with a caption describing your business, and I'll design an ad image with marketing copy.\n"+
				"Reply with plain text afterwards to edit the last result.\n\n"+
				"Commands:\n"+
				"/styles - list visual styles\n"+
				"/style <id> - pick a style\n"+
				"/projects - list saved projects\n"+
				"/delete <id> - delete a project\n"+
				"/new - start a fresh project",
		)
	case "help":
		return h.tg.SendText(chatID,
			"1. Pick a style with /style (optional).\n"+
				"2. Send product photo(s); the caption becomes the business context.\n"+
				"3. Reply with text to iteratively edit the generated ad.\n"+
				"4. /new starts the next project; history stays in /projects.",
		)
	case "styles":
		var b strings.Builder
		b.WriteString("Available styles:\n")
		for _, st := range creative.Styles() {
			fmt.Fprintf(&b, "- %s — %s\n", st.ID, st.Name)
		}
		return h.tg.SendText(chatID, b.String())
	case "style":
		styleID := strings.TrimSpace(msg.CommandArguments())
		if styleID == "" {
			return h.tg.SendText(chatID, "Usage: /style <id>. See /styles for the list.")
		}
		st := creative.LookupStyle(styleID)
		h.sessions.SetStyle(userID, username, st.ID)
		return h.tg.SendText(chatID, fmt.Sprintf("Style set: %s", st.Name))
	case "projects":
		return h.listProjects(chatID)
	case "delete":
		id := strings.TrimSpace(msg.CommandArguments())
		if id == "" {
			return h.tg.SendText(chatID, "Usage: /delete <project id>")
		}
		switch err := h.projects.Delete(id); {
		case errors.Is(err, project.ErrNotFound):
			return h.tg.SendText(chatID, "No project with that id.")
		case err != nil:
			h.logger.Error("project delete failed", "project_id", id, "err", err)
			return h.tg.SendText(chatID, "Could not delete the project, please try again.")
		}
		if state := h.sessions.Snapshot(userID, username); state.ProjectID == id {
			h.sessions.Clear(userID)
		}
		return h.tg.SendText(chatID, "Project deleted.")
	case "new", "clear":
		h.sessions.Clear(userID)
		return h.tg.SendText(chatID, "Started a fresh project. Send product photo(s) to begin.")
	default:
		return h.tg.SendText(chatID, "Unknown command, see /help.")
	}
}

func (h *Handler) handlePhoto(ctx context.Context, chatID int64, userID int64, username string, msg *tgbotapi.Message) error {
	photo := msg.Photo[len(msg.Photo)-1]
	fileID := photo.FileID

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     username,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
		})
		return nil
	}

	return h.generateFromPhotos(ctx, chatID, userID, username, msg.Caption, []string{fileID})
}

// handleText treats plain text as an edit instruction for the session's last
// generation; without a result to edit it nudges the user toward photos.
func (h *Handler) handleText(ctx context.Context, chatID int64, userID int64, username string, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	state := h.sessions.Snapshot(userID, username)
	if !state.HasResult {
		return h.tg.SendText(chatID, "Send product photo(s) first — then text messages edit the generated ad.")
	}

	h.tg.SendTyping(chatID)

	p, err := h.projects.Get(state.ProjectID)
	if errors.Is(err, project.ErrNotFound) || (err == nil && len(p.Generations) == 0) {
		h.sessions.Clear(userID)
		return h.tg.SendText(chatID, "The working project is gone. Send product photo(s) to start again.")
	}
	if err != nil {
		h.logger.Error("project load failed", "project_id", state.ProjectID, "err", err)
		return h.tg.SendText(chatID, "Something went wrong, please try again.")
	}

	last := p.Generations[len(p.Generations)-1]
	image, ok := gemini.ImageInputFromDataURL(last.ImageURL, "image/png")
	if !ok {
		return h.tg.SendText(chatID, "The last result cannot be edited. Send new photos to regenerate.")
	}

	edited, err := h.creative.Edit(ctx, image, text)
	if err != nil {
		h.logger.Error("edit failed", "err", err)
		return h.tg.SendText(chatID, "Edit failed, please try again with a different instruction.")
	}

	if _, err := h.projects.ReplaceLastImage(p.ID, edited); err != nil {
		h.logger.Error("project update failed", "project_id", p.ID, "err", err)
	}

	return h.tg.SendPhotoDataURL(chatID, edited, "Edited. Reply again to keep refining.")
}

func (h *Handler) generateFromPhotos(ctx context.Context, chatID int64, userID int64, username, caption string, fileIDs []string) error {
	h.tg.SendTyping(chatID)

	type downloaded struct {
		Base64 string
		Mime   string
	}

	downloads := make([]downloaded, len(fileIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		i := i
		fileID := fileID
		eg.Go(func() error {
			data, mimeType, err := h.tg.DownloadFileBase64(egCtx, fileID)
			if err != nil {
				return err
			}
			downloads[i] = downloaded{Base64: data, Mime: mimeType}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("photo download failed", "err", err)
		return h.tg.SendText(chatID, "Could not download the photo(s), please resend them.")
	}

	images := make([]gemini.ImageInput, 0, len(downloads))
	for _, d := range downloads {
		images = append(images, gemini.ImageInput{DataBase64: d.Base64, MimeType: d.Mime})
	}

	state := h.sessions.Snapshot(userID, username)

	result, err := h.creative.Generate(ctx, creative.Request{
		Images:  images,
		Context: strings.TrimSpace(caption),
		StyleID: state.StyleID,
	})
	if err != nil {
		h.logger.Error("generation failed", "err", err)
		return h.tg.SendText(chatID, "Generation failed, please try again.")
	}

	projectID := state.ProjectID
	if projectID == "" {
		projectID = project.NewID()
	}

	gen := project.Generation{ImageURL: result.ImageURL, Description: result.Description}
	if _, err := h.projects.Append(projectID, gen); err != nil {
		h.logger.Error("project save failed", "project_id", projectID, "err", err)
	}
	h.sessions.SetProject(userID, username, projectID)

	caption = result.Description
	if result.IntegratedText != "" {
		caption = result.IntegratedText + "\n\n" + caption
	}
	if result.Warning != "" {
		h.logger.Warn("degraded generation", "project_id", projectID, "warning", result.Warning)
	}

	return h.tg.SendPhotoDataURL(chatID, result.ImageURL, caption)
}

func (h *Handler) listProjects(chatID int64) error {
	projects, err := h.projects.List()
	if err != nil {
		h.logger.Error("project list failed", "err", err)
		return h.tg.SendText(chatID, "Could not load projects, please try again.")
	}
	if len(projects) == 0 {
		return h.tg.SendText(chatID, "No saved projects yet.")
	}

	var b strings.Builder
	b.WriteString("Saved projects:\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s (%s, %d generation(s))\n", p.ID, p.Timestamp, len(p.Generations))
	}
	b.WriteString("\n/delete <id> removes one.")
	return h.tg.SendText(chatID, b.String())
}
