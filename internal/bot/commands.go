package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/app"
	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/scoring"
)

const helpText = `Available commands:
/add <code> <credit unit> <grade|score> - Add a course
/list - Show the courses of this chat
/remove <n> - Remove course number n from /list
/level <100..700> - Set the level
/type <First Semester|Second Semester|Full Session> - Set the session type
/gpa - Calculate the GPA (CGPA for a full session)
/save - Save the course list
/load - Load the saved course list
/reset - Start over with an empty list
/help - Show this message

Examples:
/add MTH101 3 A
/add PHY101 2 67.5
/type Full Session`

type commandHandler func(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error

func (b *Bot) routeCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"add":    b.handleAdd,
		"list":   b.handleList,
		"remove": b.handleRemove,
		"level":  b.handleLevel,
		"type":   b.handleType,
		"gpa":    b.handleGPA,
		"save":   b.handleSave,
		"load":   b.handleLoad,
		"reset":  b.handleReset,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()
	if cmd == "start" || cmd == "help" {
		b.sendMessage(msg.Chat.ID, helpText)
		return
	}

	handler, ok := b.routeCommands(cmd)
	if !ok {
		b.sendHelp(msg.Chat.ID)
		return
	}

	c := b.chatState(msg.Chat.ID)
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := context.Background()
	us, err := b.workspace(ctx, msg.Chat.ID, c)
	if err == nil {
		err = handler(ctx, msg, us)
	}
	if err != nil {
		logger.Error.Printf("Command /%s in chat %d failed: %v", cmd, msg.Chat.ID, err)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
	}
}

// workspace resumes the chat's session, starting a fresh one when the chat
// has none yet or its token expired.
func (b *Bot) workspace(ctx context.Context, chatID int64, c *chat) (*app.UserSession, error) {
	if c.token != "" {
		us, err := b.service.Resume(ctx, c.token)
		if err == nil {
			return us, nil
		}
		if !errors.Is(err, app.ErrUnauthorized) {
			return nil, err
		}
		logger.Debug.Printf("Workspace of chat %d expired, starting over", chatID)
	}

	us, err := b.service.Tokens.Issue(ctx, ownerOf(chatID), models.NewSession("", ""))
	if err != nil {
		return nil, err
	}
	c.token = us.Token
	return us, nil
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Use commands to talk to the calculator. Send /help for the list of commands.")
}

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 3 {
		return fmt.Errorf("usage: /add <code> <credit unit> <grade|score>")
	}

	unit, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid credit unit %q", args[1])
	}

	course := models.Course{Code: args[0], CreditUnit: unit}
	if score, err := strconv.ParseFloat(args[2], 64); err == nil {
		course.Score = models.ScoreOf(score)
	} else {
		course.Grade = models.Grade(args[2])
	}

	added, err := b.service.AddCourse(ctx, us, course)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("✅ %s added (%d units, grade %s)", added.Code, added.CreditUnit, added.Grade)
	if added.Grade == models.GradeInvalid {
		text += "\n⚠️ The score is outside 0-100, this course will not count"
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error {
	if len(us.Session.Courses) == 0 {
		return b.sendMessage(msg.Chat.ID, "No courses yet, add one with /add")
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Level: %s\nSession: %s\n\n", orNA(us.Session.Level), orNA(us.Session.SessionType)))
	for i, line := range scoring.Lines(us.Session.Courses) {
		weight := "-"
		if line.Valid {
			weight = strconv.Itoa(line.Weight)
		}
		text.WriteString(fmt.Sprintf("%d. %s  %d units  %s  weight %s\n",
			i+1, line.Course.Code, line.Course.CreditUnit, line.Grade, weight))
	}
	return b.sendMessage(msg.Chat.ID, text.String())
}

func (b *Bot) handleRemove(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error {
	n, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	if err != nil || n < 1 || n > len(us.Session.Courses) {
		return fmt.Errorf("usage: /remove <n>, where n is a number from /list")
	}

	course := us.Session.Courses[n-1]
	if err := b.service.RemoveCourse(ctx, us, course.ID); err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 %s removed", course.Code))
}

func (b *Bot) handleLevel(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error {
	level := strings.TrimSpace(msg.CommandArguments())
	if err := b.service.SetMeta(ctx, us, level, us.Session.SessionType); err != nil {
		return fmt.Errorf("level must be one of %s", strings.Join(models.Levels, ", "))
	}
	return b.sendMessage(msg.Chat.ID, "Level set to "+level)
}

func (b *Bot) handleType(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error {
	sessionType := strings.TrimSpace(msg.CommandArguments())
	if err := b.service.SetMeta(ctx, us, us.Session.Level, sessionType); err != nil {
		return fmt.Errorf("session type must be one of %s", strings.Join(models.SessionTypes, ", "))
	}
	return b.sendMessage(msg.Chat.ID, "Session type set to "+sessionType)
}

func (b *Bot) handleGPA(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error {
	result := b.service.Calculate(us.Session)

	text := fmt.Sprintf("%s: %.2f\n%s\n%s", result.Kind, result.Average,
		result.ClassificationLabel, result.ClassificationMessage)
	if len(result.InvalidCourses) > 0 {
		text += "\n\nSkipped (invalid): " + strings.Join(result.InvalidCourses, ", ")
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleSave(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error {
	if err := b.service.SaveSession(ctx, us); err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("💾 Saved %d courses", len(us.Session.Courses)))
}

func (b *Bot) handleLoad(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error {
	if err := b.service.LoadSession(ctx, us); err != nil {
		if errors.Is(err, app.ErrNoSavedSession) {
			return b.sendMessage(msg.Chat.ID, "No saved data found")
		}
		return err
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("📂 Loaded %d courses", len(us.Session.Courses)))
}

func (b *Bot) handleReset(ctx context.Context, msg *tgbotapi.Message, us *app.UserSession) error {
	if err := b.service.Logout(ctx, us.Token); err != nil {
		return err
	}
	b.chatState(msg.Chat.ID).token = ""
	return b.sendMessage(msg.Chat.ID, "Started over with an empty course list")
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
